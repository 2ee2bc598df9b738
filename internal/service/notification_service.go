package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/jobs"
)

// JobTypeNotificationBatch identifies queued notification deliveries.
const JobTypeNotificationBatch = "notification.batch"

type notificationStore interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	ListByAccount(ctx context.Context, accountID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, accountID string, at time.Time) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// NotificationService fans out workflow notifications and serves the inbox.
// Dispatch is best-effort: producers call EnqueueAfterCommit once their
// transaction has committed, and a lost batch never fails the command that
// produced it.
type NotificationService struct {
	repo   notificationStore
	queue  jobDispatcher
	logger *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationStore, queue jobDispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, queue: queue, logger: logger}
}

// EnqueueAfterCommit hands a notification batch to the background queue.
// Failures are logged and swallowed.
func (s *NotificationService) EnqueueAfterCommit(notifications []models.Notification) {
	if len(notifications) == 0 {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeNotificationBatch,
		Payload: notifications,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification batch",
			zap.String("job_id", job.ID),
			zap.Int("count", len(notifications)),
			zap.Error(err))
	}
}

// List returns the actor's notifications, optionally unread only.
func (s *NotificationService) List(ctx context.Context, claims *models.JWTClaims, unreadOnly bool, limit int) ([]models.Notification, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	notifications, err := s.repo.ListByAccount(ctx, claims.UserID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if err := s.repo.MarkRead(ctx, id, claims.UserID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// NotificationWorker persists queued batches and triggers email delivery for
// flagged rows. Email sending is a log stub until an SMTP integration lands.
type NotificationWorker struct {
	repo    notificationStore
	logger  *zap.Logger
	metrics jobMetricsRecorder
}

type jobMetricsRecorder interface {
	RecordJobProcessed(jobType string, err error)
}

// NewNotificationWorker constructs the drain side of the queue.
func NewNotificationWorker(repo notificationStore, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{repo: repo, logger: logger}
}

// WithMetrics attaches a metrics recorder for processed jobs.
func (w *NotificationWorker) WithMetrics(metrics jobMetricsRecorder) *NotificationWorker {
	w.metrics = metrics
	return w
}

// Handle processes one queued batch. Returning an error lets the queue retry.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	batch, ok := job.Payload.([]models.Notification)
	if !ok {
		w.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	err := w.repo.CreateBatch(ctx, batch)
	if w.metrics != nil {
		w.metrics.RecordJobProcessed(job.Type, err)
	}
	if err != nil {
		return fmt.Errorf("persist notification batch: %w", err)
	}
	for _, n := range batch {
		if n.SendEmail {
			w.logger.Info("email notification queued",
				zap.String("account_id", n.AccountID),
				zap.String("type", n.Type))
		}
	}
	return nil
}
