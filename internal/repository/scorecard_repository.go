package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// ScorecardRepository persists interviewer evaluations. A member keeps a
// single scorecard per application stage; resubmitting replaces it.
type ScorecardRepository struct {
	db *sqlx.DB
}

// NewScorecardRepository constructs the repository.
func NewScorecardRepository(db *sqlx.DB) *ScorecardRepository {
	return &ScorecardRepository{db: db}
}

// Upsert inserts or replaces the member's scorecard for the stage.
func (r *ScorecardRepository) Upsert(ctx context.Context, card *models.Scorecard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	const query = `INSERT INTO scorecards (id, application_id, stage, member_id, recommendation, notes, created_at)
        VALUES (:id, :application_id, :stage, :member_id, :recommendation, :notes, NOW())
        ON CONFLICT (application_id, stage, member_id)
        DO UPDATE SET recommendation = EXCLUDED.recommendation, notes = EXCLUDED.notes, created_at = NOW()`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("upsert scorecard: %w", err)
	}
	return nil
}

// ListByApplication returns every scorecard for an application, newest first.
func (r *ScorecardRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Scorecard, error) {
	const query = `SELECT id, application_id, stage, member_id, recommendation, notes, created_at
        FROM scorecards WHERE application_id = $1 ORDER BY created_at DESC`
	var cards []models.Scorecard
	if err := r.db.SelectContext(ctx, &cards, query, applicationID); err != nil {
		return nil, fmt.Errorf("list scorecards: %w", err)
	}
	return cards, nil
}
