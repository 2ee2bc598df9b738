package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// ApprovalRepository persists approval requests.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const approvalColumns = `id, entity_type, entity_id, approval_type, status, requested_by, approver_id, reason, requested_at, responded_at`

// Create inserts a new PENDING approval request.
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.ApprovalRequest) error {
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	if approval.RequestedAt.IsZero() {
		approval.RequestedAt = time.Now().UTC()
	}
	approval.Status = models.ApprovalStatusPending
	const query = `INSERT INTO approvals (id, entity_type, entity_id, approval_type, status, requested_by, approver_id, requested_at)
        VALUES (:id, :entity_type, :entity_id, :approval_type, :status, :requested_by, :approver_id, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		return fmt.Errorf("create approval: %w", err)
	}
	return nil
}

// GetByID returns an approval request by identifier.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approvals WHERE id = $1`, approvalColumns)
	var approval models.ApprovalRequest
	if err := r.db.GetContext(ctx, &approval, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find approval: %w", err)
	}
	return &approval, nil
}

// FindPendingByKey returns the open request for a (entityType, entityID,
// approvalType) key, if one exists.
func (r *ApprovalRepository) FindPendingByKey(ctx context.Context, entityType, entityID, approvalType string) (*models.ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approvals
        WHERE entity_type = $1 AND entity_id = $2 AND approval_type = $3 AND status = 'PENDING' LIMIT 1`, approvalColumns)
	var approval models.ApprovalRequest
	if err := r.db.GetContext(ctx, &approval, query, entityType, entityID, approvalType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pending approval: %w", err)
	}
	return &approval, nil
}

// List returns approvals matching the filter, newest first.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM approvals WHERE 1=1`, approvalColumns)
	var args []interface{}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.ApproverID != "" {
		query += fmt.Sprintf(" AND approver_id = $%d", len(args)+1)
		args = append(args, filter.ApproverID)
	}
	query += " ORDER BY requested_at DESC"
	var approvals []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &approvals, query, args...); err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return approvals, nil
}

// Respond resolves a PENDING request. The status guard in the statement makes
// a second response lose the race at the database, not just in memory;
// sql.ErrNoRows is returned so the caller can report a conflict.
func (r *ApprovalRepository) Respond(ctx context.Context, id string, status models.ApprovalStatus, reason *string, at time.Time) error {
	const query = `UPDATE approvals SET status = $2, reason = $3, responded_at = $4
        WHERE id = $1 AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, id, status, reason, at)
	if err != nil {
		return fmt.Errorf("respond approval: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
