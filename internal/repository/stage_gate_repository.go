package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// StageGateRepository stores per-(job, stage) gate configurations and
// supplies the counts the evaluator compares against them.
type StageGateRepository struct {
	db *sqlx.DB
}

// NewStageGateRepository constructs the repository.
func NewStageGateRepository(db *sqlx.DB) *StageGateRepository {
	return &StageGateRepository{db: db}
}

// FindConfig returns the gate configuration for a job stage, if any.
func (r *StageGateRepository) FindConfig(ctx context.Context, jobID, stage string) (*models.StageGateConfig, error) {
	const query = `SELECT id, job_id, stage, min_scorecards, min_interviews, created_at, updated_at
        FROM stage_gate_configs WHERE job_id = $1 AND stage = $2 LIMIT 1`
	var config models.StageGateConfig
	if err := r.db.GetContext(ctx, &config, query, jobID, stage); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find stage gate config: %w", err)
	}
	return &config, nil
}

// ListConfigs returns every gate configuration for a job.
func (r *StageGateRepository) ListConfigs(ctx context.Context, jobID string) ([]models.StageGateConfig, error) {
	const query = `SELECT id, job_id, stage, min_scorecards, min_interviews, created_at, updated_at
        FROM stage_gate_configs WHERE job_id = $1 ORDER BY stage`
	var configs []models.StageGateConfig
	if err := r.db.SelectContext(ctx, &configs, query, jobID); err != nil {
		return nil, fmt.Errorf("list stage gate configs: %w", err)
	}
	return configs, nil
}

// UpsertConfig writes a validated gate configuration for a job stage.
func (r *StageGateRepository) UpsertConfig(ctx context.Context, config *models.StageGateConfig) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now
	const query = `INSERT INTO stage_gate_configs (id, job_id, stage, min_scorecards, min_interviews, created_at, updated_at)
        VALUES (:id, :job_id, :stage, :min_scorecards, :min_interviews, :created_at, :updated_at)
        ON CONFLICT (job_id, stage)
        DO UPDATE SET min_scorecards = EXCLUDED.min_scorecards, min_interviews = EXCLUDED.min_interviews, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("upsert stage gate config: %w", err)
	}
	return nil
}

// CountScorecards counts scorecards submitted for an application at a stage.
func (r *StageGateRepository) CountScorecards(ctx context.Context, applicationID, stage string) (int, error) {
	const query = `SELECT COUNT(*) FROM scorecards WHERE application_id = $1 AND stage = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, applicationID, stage); err != nil {
		return 0, fmt.Errorf("count scorecards: %w", err)
	}
	return count, nil
}

// CountCompletedInterviews counts held interviews for an application at a stage.
func (r *StageGateRepository) CountCompletedInterviews(ctx context.Context, applicationID, stage string) (int, error) {
	const query = `SELECT COUNT(*) FROM interviews WHERE application_id = $1 AND stage = $2 AND completed_at IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, applicationID, stage); err != nil {
		return 0, fmt.Errorf("count interviews: %w", err)
	}
	return count, nil
}
