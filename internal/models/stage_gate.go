package models

import "time"

// Blocker action identifiers returned by the stage gate evaluator.
const (
	BlockerActionSubmitScorecard = "SUBMIT_SCORECARD"
	BlockerActionHoldInterview   = "HOLD_INTERVIEW"
)

// StageGateConfig holds the typed requirements to advance an application out
// of a stage. Configs are validated at write time; a job with no config for a
// stage has an open gate.
type StageGateConfig struct {
	ID            string    `db:"id" json:"id"`
	JobID         string    `db:"job_id" json:"job_id"`
	Stage         string    `db:"stage" json:"stage"`
	MinScorecards int       `db:"min_scorecards" json:"min_scorecards"`
	MinInterviews int       `db:"min_interviews" json:"min_interviews"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Blocker describes one unmet gate requirement. An empty blocker list is the
// sole signal that a transition may proceed.
type Blocker struct {
	Action   string `json:"action"`
	Message  string `json:"message"`
	Current  int    `json:"current"`
	Required int    `json:"required"`
}

// UpsertStageGateConfigRequest carries a gate configuration write.
type UpsertStageGateConfigRequest struct {
	Stage         string `json:"stage" validate:"required"`
	MinScorecards int    `json:"min_scorecards" validate:"min=0,max=20"`
	MinInterviews int    `json:"min_interviews" validate:"min=0,max=20"`
}
