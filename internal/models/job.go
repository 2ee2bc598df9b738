package models

import (
	"time"

	"github.com/lib/pq"
)

// JobStatus describes whether a job accepts applications.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "OPEN"
	JobStatusClosed JobStatus = "CLOSED"
)

// Job represents a job posting with its ordered hiring funnel.
type Job struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"organization_id"`
	Title          string         `db:"title" json:"title"`
	Status         JobStatus      `db:"status" json:"status"`
	Stages         pq.StringArray `db:"stages" json:"stages"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// HasStage reports whether the label belongs to the job's funnel.
func (j *Job) HasStage(stage string) bool {
	for _, s := range j.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// StageBefore returns the funnel stage preceding the given one, or empty when
// the stage is first or unknown.
func (j *Job) StageBefore(stage string) string {
	for i, s := range j.Stages {
		if s == stage && i > 0 {
			return j.Stages[i-1]
		}
	}
	return ""
}
