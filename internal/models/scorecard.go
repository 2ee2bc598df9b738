package models

import "time"

// ScorecardRecommendation captures the interviewer verdict.
type ScorecardRecommendation string

const (
	RecommendationStrongYes ScorecardRecommendation = "STRONG_YES"
	RecommendationYes       ScorecardRecommendation = "YES"
	RecommendationNo        ScorecardRecommendation = "NO"
	RecommendationStrongNo  ScorecardRecommendation = "STRONG_NO"
)

// Scorecard is an interviewer's written evaluation of an application at a
// given stage. Gate requirements count these rows.
type Scorecard struct {
	ID             string                  `db:"id" json:"id"`
	ApplicationID  string                  `db:"application_id" json:"application_id"`
	Stage          string                  `db:"stage" json:"stage"`
	MemberID       string                  `db:"member_id" json:"member_id"`
	Recommendation ScorecardRecommendation `db:"recommendation" json:"recommendation"`
	Notes          *string                 `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
}

// SubmitScorecardRequest records the actor's evaluation of an application at
// its current stage.
type SubmitScorecardRequest struct {
	Recommendation ScorecardRecommendation `json:"recommendation" validate:"required,oneof=STRONG_YES YES NO STRONG_NO"`
	Notes          *string                 `json:"notes,omitempty" validate:"omitempty,max=5000"`
}
