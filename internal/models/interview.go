package models

import "time"

// Interview records a scheduled conversation for an application at a stage.
// Only completed interviews count toward gate requirements.
type Interview struct {
	ID            string     `db:"id" json:"id"`
	ApplicationID string     `db:"application_id" json:"application_id"`
	Stage         string     `db:"stage" json:"stage"`
	ScheduledAt   time.Time  `db:"scheduled_at" json:"scheduled_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ScheduleInterviewRequest books an interview at the application's current
// stage.
type ScheduleInterviewRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}
