package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// ApplicationRepository handles persistence of applications, including the
// withdrawal soft delete and its cascade.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, job_id, candidate_id, stage, created_at, offered_at, hired_at, rejected_at, deleted_at`

// FindByID returns an application by identifier, deleted or not. Callers
// decide how deletion is surfaced.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// FindDetailByID returns an application with candidate and job context.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	const query = `SELECT a.id, a.job_id, a.candidate_id, a.stage, a.created_at, a.offered_at, a.hired_at, a.rejected_at, a.deleted_at,
        u.full_name AS candidate_name, j.title AS job_title, j.organization_id
        FROM applications a
        JOIN users u ON u.id = a.candidate_id
        JOIN jobs j ON j.id = a.job_id
        WHERE a.id = $1`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application detail: %w", err)
	}
	return &detail, nil
}

// List returns non-deleted applications matching the filter.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	base := `FROM applications a
JOIN users u ON u.id = a.candidate_id
JOIN jobs j ON j.id = a.job_id
WHERE a.deleted_at IS NULL`
	var conditions []string
	var args []interface{}

	if filter.OrganizationID != "" {
		conditions = append(conditions, fmt.Sprintf("j.organization_id = $%d", len(args)+1))
		args = append(args, filter.OrganizationID)
	}
	if filter.JobID != "" {
		conditions = append(conditions, fmt.Sprintf("a.job_id = $%d", len(args)+1))
		args = append(args, filter.JobID)
	}
	if filter.CandidateID != "" {
		conditions = append(conditions, fmt.Sprintf("a.candidate_id = $%d", len(args)+1))
		args = append(args, filter.CandidateID)
	}
	if filter.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("a.stage = $%d", len(args)+1))
		args = append(args, filter.Stage)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.job_id, a.candidate_id, a.stage, a.created_at, a.offered_at, a.hired_at, a.rejected_at, a.deleted_at,
        u.full_name AS candidate_name, j.title AS job_title, j.organization_id
        %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// UpdateStage writes the new stage and any stage-derived timestamp in one
// statement. Entering "hired" or "rejected" stamps the matching column.
func (r *ApplicationRepository) UpdateStage(ctx context.Context, id, stage string, at time.Time) error {
	query := `UPDATE applications SET stage = $2`
	args := []interface{}{id, stage}
	switch stage {
	case models.StageHired:
		query += fmt.Sprintf(", hired_at = $%d", len(args)+1)
		args = append(args, at)
	case models.StageRejected:
		query += fmt.Sprintf(", rejected_at = $%d", len(args)+1)
		args = append(args, at)
	}
	query += " WHERE id = $1 AND deleted_at IS NULL"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update application stage: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// softDeleteCascade lists, per entity type, the statements applied alongside
// a soft delete so dependent records cannot be missed at a call site.
var softDeleteCascade = map[string][]string{
	"application": {
		`UPDATE offers SET status = 'WITHDRAWN', withdrawn_at = $2
         WHERE application_id = $1 AND status NOT IN ('SIGNED', 'WITHDRAWN')`,
	},
}

// Withdraw soft-deletes an application and cascades to its live offer inside
// one transaction. Returns sql.ErrNoRows when the application is already
// withdrawn or missing.
func (r *ApplicationRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE applications SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("soft delete application: %w", err)
	}
	affected, raErr := res.RowsAffected()
	if raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	for _, stmt := range softDeleteCascade["application"] {
		if _, err = tx.ExecContext(ctx, stmt, id, at); err != nil {
			return fmt.Errorf("withdraw cascade: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw tx: %w", err)
	}
	return nil
}
