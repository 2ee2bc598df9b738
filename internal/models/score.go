package models

import "time"

// ScoreTargetType identifies the rated entity table. Candidates and
// organizations share the same aggregation algorithm.
type ScoreTargetType string

const (
	ScoreTargetCandidate    ScoreTargetType = "CANDIDATE"
	ScoreTargetOrganization ScoreTargetType = "ORGANIZATION"
)

// Valid reports whether the target type is known.
func (t ScoreTargetType) Valid() bool {
	return t == ScoreTargetCandidate || t == ScoreTargetOrganization
}

// Score is an individual rating row. One row per (rater, targetType, target);
// a repeated rating from the same rater replaces the previous row rather than
// adding weight.
type Score struct {
	ID         string          `db:"id" json:"id"`
	RaterID    string          `db:"rater_id" json:"rater_id"`
	TargetType ScoreTargetType `db:"target_type" json:"target_type"`
	TargetID   string          `db:"target_id" json:"target_id"`
	Rating     int             `db:"rating" json:"rating"`
	Comment    *string         `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// RatingSummary is the denormalized pair persisted on the target entity. It
// must always equal the one-decimal mean and count of current score rows.
type RatingSummary struct {
	Rating float64 `db:"rating" json:"rating"`
	Count  int     `db:"rating_count" json:"count"`
}

// UpsertScoreRequest submits or replaces the actor's rating for a target.
type UpsertScoreRequest struct {
	TargetType ScoreTargetType `json:"target_type" validate:"required,oneof=CANDIDATE ORGANIZATION"`
	TargetID   string          `json:"target_id" validate:"required,uuid4"`
	Rating     int             `json:"rating" validate:"required,min=1,max=5"`
	Comment    *string         `json:"comment,omitempty" validate:"omitempty,max=2000"`
}
