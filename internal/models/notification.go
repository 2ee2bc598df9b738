package models

import "time"

// Notification type identifiers.
const (
	NotificationTypeApplicationWithdrawn = "APPLICATION_WITHDRAWN"
	NotificationTypeOfferCreated         = "OFFER_CREATED"
	NotificationTypeOfferViewed          = "OFFER_VIEWED"
	NotificationTypeOfferSigned          = "OFFER_SIGNED"
	NotificationTypeOfferWithdrawn       = "OFFER_WITHDRAWN"
	NotificationTypeApprovalRequested    = "APPROVAL_REQUESTED"
	NotificationTypeApprovalResolved     = "APPROVAL_RESOLVED"
)

// Notification is an in-app notification row. Offer-view notifications are
// written inside the viewing transaction; every other producer enqueues a
// best-effort dispatch after commit.
type Notification struct {
	ID        string     `db:"id" json:"id"`
	AccountID string     `db:"account_id" json:"account_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	Data      []byte     `db:"data" json:"data,omitempty"`
	SendEmail bool       `db:"send_email" json:"send_email"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
