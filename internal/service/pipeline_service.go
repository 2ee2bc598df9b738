package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type pipelineApplicationStore interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	UpdateStage(ctx context.Context, id, stage string, at time.Time) error
	Withdraw(ctx context.Context, id string, at time.Time) error
}

type pipelineJobStore interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
}

type pipelineMemberStore interface {
	ListMemberAccountIDs(ctx context.Context, organizationID string, roles ...models.UserRole) ([]string, error)
}

type gateEvaluator interface {
	Evaluate(ctx context.Context, app *models.Application) ([]models.Blocker, error)
}

type auditAppender interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type notificationEnqueuer interface {
	EnqueueAfterCommit(notifications []models.Notification)
}

// PipelineService validates and applies application stage transitions and the
// candidate's terminal withdrawal. Authoritative state changes commit first;
// audit entries and notifications follow best-effort and never fail a command.
type PipelineService struct {
	applications  pipelineApplicationStore
	jobsRepo      pipelineJobStore
	members       pipelineMemberStore
	access        *AccessService
	gates         gateEvaluator
	audit         auditAppender
	notifications notificationEnqueuer
	logger        *zap.Logger
}

// NewPipelineService constructs the pipeline service.
func NewPipelineService(
	applications pipelineApplicationStore,
	jobsRepo pipelineJobStore,
	members pipelineMemberStore,
	access *AccessService,
	gates gateEvaluator,
	audit auditAppender,
	notifications notificationEnqueuer,
	logger *zap.Logger,
) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineService{
		applications:  applications,
		jobsRepo:      jobsRepo,
		members:       members,
		access:        access,
		gates:         gates,
		audit:         audit,
		notifications: notifications,
		logger:        logger,
	}
}

// Get returns one application with its job and candidate context.
func (s *PipelineService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.ApplicationDetail, error) {
	detail, job, err := s.loadVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanViewApplication(ctx, claims, detail, job); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns applications visible to the actor. Candidates see their own;
// staff see their organization's, reviewers only jobs they are assigned to.
func (s *PipelineService) List(ctx context.Context, claims *models.JWTClaims, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	if claims == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}

	switch {
	case claims.Role == models.RoleCandidate:
		filter.CandidateID = claims.UserID
		filter.OrganizationID = ""
	case claims.IsElevated():
		filter.OrganizationID = claims.OrganizationID
	default:
		// Reviewers list per assigned job.
		if filter.JobID == "" {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, "job_id is required")
		}
		job, err := s.loadJob(ctx, filter.JobID)
		if err != nil {
			return nil, 0, err
		}
		if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
			return nil, 0, err
		}
	}

	if filter.JobID != "" && claims.IsStaff() {
		filter.OrganizationID = claims.OrganizationID
	}

	applications, total, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return applications, total, nil
}

// Blockers evaluates the gate for the application's current stage without
// mutating anything, so clients can display progress.
func (s *PipelineService) Blockers(ctx context.Context, claims *models.JWTClaims, applicationID string) ([]models.Blocker, error) {
	detail, job, err := s.loadVisible(ctx, claims, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return nil, err
	}
	blockers, err := s.gates.Evaluate(ctx, &detail.Application)
	if err != nil {
		return nil, err
	}
	return blockers, nil
}

// AdvanceStage moves an application to the target stage after the gate for
// the current stage clears. On an unmet gate the returned blockers accompany
// a stage-blocked error and nothing is written.
func (s *PipelineService) AdvanceStage(ctx context.Context, claims *models.JWTClaims, applicationID, targetStage string) (*models.Application, []models.Blocker, error) {
	detail, job, err := s.loadVisible(ctx, claims, applicationID)
	if err != nil {
		return nil, nil, err
	}

	if claims.Role == models.RoleCandidate {
		if detail.CandidateID == claims.UserID {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "candidates cannot advance their own application")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return nil, nil, err
	}
	if !claims.IsElevated() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "reviewers cannot advance applications")
	}

	if !job.HasStage(targetStage) && targetStage != models.StageRejected {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("stage %q is not part of the job funnel", targetStage))
	}
	if targetStage == detail.Stage {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "application already in target stage")
	}
	if targetStage == models.StageOffer {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "the offer stage is entered by creating an offer")
	}

	blockers, err := s.gates.Evaluate(ctx, &detail.Application)
	if err != nil {
		return nil, nil, err
	}
	if len(blockers) > 0 {
		return nil, blockers, appErrors.Clone(appErrors.ErrStageBlocked, "")
	}

	now := time.Now().UTC()
	if err := s.applications.UpdateStage(ctx, applicationID, targetStage, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "application was withdrawn")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance stage")
	}

	s.appendAudit(ctx, claims, models.AuditActionStageAdvance, "application", applicationID, map[string]string{
		"from": detail.Stage,
		"to":   targetStage,
	})

	updated, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload application")
	}
	return updated, nil, nil
}

// Withdraw soft-deletes the candidate's own application. The deletion and the
// offer cascade commit together; staff notification and the audit entry run
// after commit and are never surfaced on failure.
func (s *PipelineService) Withdraw(ctx context.Context, claims *models.JWTClaims, applicationID string) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}

	detail, err := s.applications.FindDetailByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if claims.Role != models.RoleCandidate || detail.CandidateID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owning candidate may withdraw an application")
	}
	if detail.DeletedAt != nil {
		return appErrors.Clone(appErrors.ErrConflict, "application already withdrawn")
	}

	now := time.Now().UTC()
	if err := s.applications.Withdraw(ctx, applicationID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "application already withdrawn")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw application")
	}

	s.appendAudit(ctx, claims, models.AuditActionApplicationWithdraw, "application", applicationID, map[string]string{
		"stage": detail.Stage,
	})
	s.notifyStaff(ctx, detail, models.NotificationTypeApplicationWithdrawn,
		"Application withdrawn",
		fmt.Sprintf("%s withdrew their application for %s", detail.CandidateName, detail.JobTitle),
		true)

	return nil
}

// loadVisible resolves an application and its job, hiding deleted rows behind
// not-found. Callers still run their own authorization checks.
func (s *PipelineService) loadVisible(ctx context.Context, claims *models.JWTClaims, applicationID string) (*models.ApplicationDetail, *models.Job, error) {
	if claims == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	detail, err := s.applications.FindDetailByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if detail.DeletedAt != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	job, err := s.loadJob(ctx, detail.JobID)
	if err != nil {
		return nil, nil, err
	}
	return detail, job, nil
}

func (s *PipelineService) loadJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

func (s *PipelineService) appendAudit(ctx context.Context, claims *models.JWTClaims, action, resource, resourceID string, changes map[string]string) {
	payload, err := json.Marshal(changes)
	if err != nil {
		payload = nil
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("action", action),
			zap.String("resource_id", resourceID),
			zap.Error(err))
	}
}

// notifyStaff fans a notification out to the organization's ADMIN and
// RECRUITER members after the primary transaction has committed.
func (s *PipelineService) notifyStaff(ctx context.Context, detail *models.ApplicationDetail, notificationType, title, body string, sendEmail bool) {
	accountIDs, err := s.members.ListMemberAccountIDs(ctx, detail.OrganizationID, models.RoleAdmin, models.RoleRecruiter)
	if err != nil {
		s.logger.Warn("failed to resolve staff recipients",
			zap.String("organization_id", detail.OrganizationID),
			zap.Error(err))
		return
	}
	data, _ := json.Marshal(map[string]string{
		"application_id": detail.ID,
		"job_id":         detail.JobID,
	})
	notifications := make([]models.Notification, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		notifications = append(notifications, models.Notification{
			AccountID: accountID,
			Type:      notificationType,
			Title:     title,
			Body:      body,
			Data:      data,
			SendEmail: sendEmail,
		})
	}
	s.notifications.EnqueueAfterCommit(notifications)
}
