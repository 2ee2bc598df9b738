package models

import "time"

// Organization represents an employer account. Rating and RatingCount are the
// denormalized aggregate over score rows targeting the organization; they are
// recomputed transactionally on every score change and must never drift.
type Organization struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Website     *string   `db:"website" json:"website,omitempty"`
	Rating      float64   `db:"rating" json:"rating"`
	RatingCount int       `db:"rating_count" json:"rating_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// OrgMember links a staff account to an organization with a role.
type OrgMember struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	AccountID      string    `db:"account_id" json:"account_id"`
	Role           UserRole  `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// JobAssignment scopes a REVIEWER member to a specific job. ADMIN and
// RECRUITER members see every job in their organization.
type JobAssignment struct {
	ID        string    `db:"id" json:"id"`
	JobID     string    `db:"job_id" json:"job_id"`
	MemberID  string    `db:"member_id" json:"member_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
