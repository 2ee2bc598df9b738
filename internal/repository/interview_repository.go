package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// InterviewRepository persists interview records for gate counting.
type InterviewRepository struct {
	db *sqlx.DB
}

// NewInterviewRepository constructs the repository.
func NewInterviewRepository(db *sqlx.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// Create inserts a scheduled interview.
func (r *InterviewRepository) Create(ctx context.Context, interview *models.Interview) error {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	const query = `INSERT INTO interviews (id, application_id, stage, scheduled_at, created_by, created_at)
        VALUES (:id, :application_id, :stage, :scheduled_at, :created_by, NOW())`
	if _, err := r.db.NamedExecContext(ctx, query, interview); err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

// Complete marks an interview as held. Returns sql.ErrNoRows when the
// interview does not exist or was already completed.
func (r *InterviewRepository) Complete(ctx context.Context, id string) error {
	const query = `UPDATE interviews SET completed_at = NOW() WHERE id = $1 AND completed_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("complete interview: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete interview rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByApplication returns interviews for an application, soonest first.
func (r *InterviewRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Interview, error) {
	const query = `SELECT id, application_id, stage, scheduled_at, completed_at, created_by, created_at
        FROM interviews WHERE application_id = $1 ORDER BY scheduled_at`
	var interviews []models.Interview
	if err := r.db.SelectContext(ctx, &interviews, query, applicationID); err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return interviews, nil
}
