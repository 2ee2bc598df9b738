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

// NotificationRepository persists in-app notification rows.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// insertNotifications writes notification rows through any executor, so the
// same statement serves both standalone inserts and writes that must land
// inside a caller's transaction (offer views).
func insertNotifications(ctx context.Context, ext sqlx.ExtContext, notifications []models.Notification) error {
	const query = `INSERT INTO notifications (id, account_id, type, title, body, data, send_email, created_at)
        VALUES (:id, :account_id, :type, :title, :body, :data, :send_email, :created_at)`
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.NewString()
		}
		if notifications[i].CreatedAt.IsZero() {
			notifications[i].CreatedAt = time.Now().UTC()
		}
		if _, err := sqlx.NamedExecContext(ctx, ext, query, notifications[i]); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

// CreateBatch inserts notification rows outside any transaction.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return insertNotifications(ctx, r.db, notifications)
}

// ListByAccount returns notifications for an account, newest first.
func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT id, account_id, type, title, body, data, send_email, read_at, created_at
        FROM notifications WHERE account_id = $1`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, accountID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead stamps read_at for one notification owned by the account.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, accountID string, at time.Time) error {
	const query = `UPDATE notifications SET read_at = $3 WHERE id = $1 AND account_id = $2 AND read_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, accountID, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
