package models

import "time"

// OfferStatus enumerates the offer lifecycle. SIGNED and WITHDRAWN are
// terminal; the forward path is DRAFT -> SENT -> VIEWED -> SIGNED and
// WITHDRAWN is reachable from any non-terminal state.
type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "DRAFT"
	OfferStatusSent      OfferStatus = "SENT"
	OfferStatusViewed    OfferStatus = "VIEWED"
	OfferStatusSigned    OfferStatus = "SIGNED"
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
)

// Terminal reports whether the status permits no further transition.
func (s OfferStatus) Terminal() bool {
	return s == OfferStatusSigned || s == OfferStatusWithdrawn
}

// Offer is one-to-one with a non-deleted application. PreviousStage records
// the application stage held when the offer was created, so a withdrawal can
// revert the pipeline without guessing.
type Offer struct {
	ID             string      `db:"id" json:"id"`
	ApplicationID  string      `db:"application_id" json:"application_id"`
	OrganizationID string      `db:"organization_id" json:"organization_id"`
	Status         OfferStatus `db:"status" json:"status"`
	PreviousStage  string      `db:"previous_stage" json:"previous_stage"`
	LetterPath     *string     `db:"letter_path" json:"-"`
	CreatedBy      string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	SentAt         *time.Time  `db:"sent_at" json:"sent_at,omitempty"`
	ViewedAt       *time.Time  `db:"viewed_at" json:"viewed_at,omitempty"`
	SignedAt       *time.Time  `db:"signed_at" json:"signed_at,omitempty"`
	WithdrawnAt    *time.Time  `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
}
