package models

import "time"

// ApprovalStatus enumerates approval request states. APPROVED and REJECTED
// are terminal; a resolved request is immutable.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest is a generic second-party sign-off gate keyed by
// (entityType, entityID, approvalType). An APPROVED result authorizes exactly
// one downstream action; REJECTED permanently blocks this request and a new
// one must be created to retry.
type ApprovalRequest struct {
	ID           string         `db:"id" json:"id"`
	EntityType   string         `db:"entity_type" json:"entity_type"`
	EntityID     string         `db:"entity_id" json:"entity_id"`
	ApprovalType string         `db:"approval_type" json:"approval_type"`
	Status       ApprovalStatus `db:"status" json:"status"`
	RequestedBy  string         `db:"requested_by" json:"requested_by"`
	ApproverID   string         `db:"approver_id" json:"approver_id"`
	Reason       *string        `db:"reason" json:"reason,omitempty"`
	RequestedAt  time.Time      `db:"requested_at" json:"requested_at"`
	RespondedAt  *time.Time     `db:"responded_at" json:"responded_at,omitempty"`
}

// ApprovalFilter narrows approval listings.
type ApprovalFilter struct {
	Status     []ApprovalStatus
	EntityType string
	ApproverID string
}

// CreateApprovalRequest asks a designated approver to sign off on an action.
type CreateApprovalRequest struct {
	EntityType   string `json:"entity_type" validate:"required"`
	EntityID     string `json:"entity_id" validate:"required,uuid4"`
	ApprovalType string `json:"approval_type" validate:"required"`
	ApproverID   string `json:"approver_id" validate:"required,uuid4"`
}

// RespondApprovalRequest resolves a pending approval.
type RespondApprovalRequest struct {
	Status ApprovalStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Reason *string        `json:"reason,omitempty"`
}
