package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionStageAdvance         = "STAGE_ADVANCE"
	AuditActionApplicationWithdraw  = "APPLICATION_WITHDRAW"
	AuditActionOfferCreate          = "OFFER_CREATE"
	AuditActionOfferSend            = "OFFER_SEND"
	AuditActionOfferView            = "OFFER_VIEW"
	AuditActionOfferSign            = "OFFER_SIGN"
	AuditActionOfferWithdraw        = "OFFER_WITHDRAW"
	AuditActionApprovalRequest      = "APPROVAL_REQUEST"
	AuditActionApprovalRespond      = "APPROVAL_RESPOND"
	AuditActionScoreUpsert          = "SCORE_UPSERT"
	AuditActionScoreDelete          = "SCORE_DELETE"
	AuditActionStageGateConfigWrite = "STAGE_GATE_CONFIG_WRITE"
)

// AuditLog represents an audit trail record. Appends are best-effort: a
// failed write is logged and never fails the caller's request.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
