package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// JobRepository provides read access to job postings and their funnels.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// FindByID returns a job by identifier.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.Job, error) {
	const query = `SELECT id, organization_id, title, status, stages, created_at, updated_at FROM jobs WHERE id = $1`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return &job, nil
}

// ListByOrganization returns jobs for an organization.
func (r *JobRepository) ListByOrganization(ctx context.Context, organizationID string) ([]models.Job, error) {
	const query = `SELECT id, organization_id, title, status, stages, created_at, updated_at
        FROM jobs WHERE organization_id = $1 ORDER BY created_at DESC`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, organizationID); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}
