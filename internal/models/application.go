package models

import "time"

// Well-known stage labels. Funnels are free-form per job; these constants
// cover the labels the workflow core treats specially.
const (
	StageApplied  = "applied"
	StageOffer    = "offer"
	StageHired    = "hired"
	StageRejected = "rejected"
)

// Application identifies a candidate's attempt at one job. It is never
// physically destroyed; withdrawal sets DeletedAt.
type Application struct {
	ID          string     `db:"id" json:"id"`
	JobID       string     `db:"job_id" json:"job_id"`
	CandidateID string     `db:"candidate_id" json:"candidate_id"`
	Stage       string     `db:"stage" json:"stage"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	OfferedAt   *time.Time `db:"offered_at" json:"offered_at,omitempty"`
	HiredAt     *time.Time `db:"hired_at" json:"hired_at,omitempty"`
	RejectedAt  *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ApplicationDetail joins contextual fields for list and export views.
type ApplicationDetail struct {
	Application
	CandidateName  string `db:"candidate_name" json:"candidate_name"`
	JobTitle       string `db:"job_title" json:"job_title"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
}

// AdvanceStageRequest names the stage an application should move to.
type AdvanceStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// ApplicationFilter narrows pipeline listings.
type ApplicationFilter struct {
	OrganizationID string
	JobID          string
	CandidateID    string
	Stage          string
	Page           int
	PageSize       int
}
