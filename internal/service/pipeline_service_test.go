package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type applicationStoreStub struct {
	apps          map[string]*models.ApplicationDetail
	listItems     []models.ApplicationDetail
	listTotal     int
	listFilter    models.ApplicationFilter
	updateErr     error
	withdrawErr   error
	updateCalls   int
	withdrawCalls int
	updatedStage  string
}

func (s *applicationStoreStub) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if detail, ok := s.apps[id]; ok {
		app := detail.Application
		return &app, nil
	}
	return nil, sql.ErrNoRows
}

func (s *applicationStoreStub) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	if detail, ok := s.apps[id]; ok {
		return detail, nil
	}
	return nil, sql.ErrNoRows
}

func (s *applicationStoreStub) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	s.listFilter = filter
	return s.listItems, s.listTotal, nil
}

func (s *applicationStoreStub) UpdateStage(ctx context.Context, id, stage string, at time.Time) error {
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updatedStage = stage
	if detail, ok := s.apps[id]; ok {
		detail.Stage = stage
	}
	return nil
}

func (s *applicationStoreStub) Withdraw(ctx context.Context, id string, at time.Time) error {
	s.withdrawCalls++
	if s.withdrawErr != nil {
		return s.withdrawErr
	}
	if detail, ok := s.apps[id]; ok {
		detail.DeletedAt = &at
	}
	return nil
}

type jobStoreStub struct {
	jobs map[string]*models.Job
}

func (s jobStoreStub) FindByID(ctx context.Context, id string) (*models.Job, error) {
	if job, ok := s.jobs[id]; ok {
		return job, nil
	}
	return nil, sql.ErrNoRows
}

type memberListStub struct {
	accountIDs []string
	err        error
	calls      int
}

func (s *memberListStub) ListMemberAccountIDs(ctx context.Context, organizationID string, roles ...models.UserRole) ([]string, error) {
	s.calls++
	return s.accountIDs, s.err
}

type gateEvalStub struct {
	blockers []models.Blocker
	err      error
	calls    int
}

func (s *gateEvalStub) Evaluate(ctx context.Context, app *models.Application) ([]models.Blocker, error) {
	s.calls++
	return s.blockers, s.err
}

type auditRecorderStub struct {
	logs []*models.AuditLog
	err  error
}

func (s *auditRecorderStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return s.err
}

type notifierStub struct {
	batches [][]models.Notification
}

func (s *notifierStub) EnqueueAfterCommit(notifications []models.Notification) {
	s.batches = append(s.batches, notifications)
}

type assignmentStub struct {
	allowed bool
	err     error
}

func (s assignmentStub) HasJobAssignment(ctx context.Context, jobID, memberID string) (bool, error) {
	return s.allowed, s.err
}

func testJob() *models.Job {
	return &models.Job{
		ID:             "job-1",
		OrganizationID: "org-1",
		Title:          "Backend Engineer",
		Status:         models.JobStatusOpen,
		Stages:         []string{"applied", "screening", "interview", "offer", "hired"},
	}
}

func testDetail(stage string) *models.ApplicationDetail {
	return &models.ApplicationDetail{
		Application: models.Application{
			ID:          "app-1",
			JobID:       "job-1",
			CandidateID: "cand-1",
			Stage:       stage,
			CreatedAt:   time.Now().UTC(),
		},
		CandidateName:  "Dana Smith",
		JobTitle:       "Backend Engineer",
		OrganizationID: "org-1",
	}
}

func recruiterClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter, OrganizationID: "org-1"}
}

func candidateClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleCandidate}
}

func newPipelineService(apps *applicationStoreStub, jobs jobStoreStub, members *memberListStub, gates *gateEvalStub, audit *auditRecorderStub, notifier *notifierStub) *PipelineService {
	access := NewAccessService(assignmentStub{allowed: true}, zap.NewNop())
	return NewPipelineService(apps, jobs, members, access, gates, audit, notifier, zap.NewNop())
}

func TestPipelineAdvanceStageSuccess(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("screening")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	gates := &gateEvalStub{}
	audit := &auditRecorderStub{}
	service := newPipelineService(apps, jobs, &memberListStub{}, gates, audit, &notifierStub{})

	updated, blockers, err := service.AdvanceStage(context.Background(), recruiterClaims(), "app-1", "interview")
	require.NoError(t, err)
	assert.Empty(t, blockers)
	assert.Equal(t, "interview", updated.Stage)
	assert.Equal(t, 1, gates.calls)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStageAdvance, audit.logs[0].Action)
}

func TestPipelineAdvanceStageBlockedByGate(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	gates := &gateEvalStub{blockers: []models.Blocker{{
		Action:   models.BlockerActionSubmitScorecard,
		Current:  1,
		Required: 2,
	}}}
	service := newPipelineService(apps, jobs, &memberListStub{}, gates, &auditRecorderStub{}, &notifierStub{})

	_, blockers, err := service.AdvanceStage(context.Background(), recruiterClaims(), "app-1", "hired")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStageBlocked.Code, appErrors.FromError(err).Code)
	require.Len(t, blockers, 1)
	assert.Equal(t, 1, blockers[0].Current)
	assert.Equal(t, 2, blockers[0].Required)
	assert.Zero(t, apps.updateCalls)
}

func TestPipelineAdvanceStageRejectsOfferStage(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	_, _, err := service.AdvanceStage(context.Background(), recruiterClaims(), "app-1", "offer")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPipelineAdvanceStageReviewerForbidden(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("screening")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	claims := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReviewer, OrganizationID: "org-1"}
	_, _, err := service.AdvanceStage(context.Background(), claims, "app-1", "interview")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPipelineAdvanceStageOtherOrgNotFound(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("screening")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	claims := &models.JWTClaims{UserID: "rec-9", Role: models.RoleRecruiter, OrganizationID: "org-2"}
	_, _, err := service.AdvanceStage(context.Background(), claims, "app-1", "interview")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPipelineWithdrawNotifiesStaffAfterCommit(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	members := &memberListStub{accountIDs: []string{"admin-1", "rec-1"}}
	audit := &auditRecorderStub{}
	notifier := &notifierStub{}
	service := newPipelineService(apps, jobs, members, &gateEvalStub{}, audit, notifier)

	err := service.Withdraw(context.Background(), candidateClaims("cand-1"), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, apps.withdrawCalls)
	require.Len(t, notifier.batches, 1)
	require.Len(t, notifier.batches[0], 2)
	assert.Equal(t, models.NotificationTypeApplicationWithdrawn, notifier.batches[0][0].Type)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionApplicationWithdraw, audit.logs[0].Action)
}

func TestPipelineWithdrawSecondCallConflict(t *testing.T) {
	deletedAt := time.Now().UTC().Add(-time.Hour)
	detail := testDetail("interview")
	detail.DeletedAt = &deletedAt
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": detail}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	err := service.Withdraw(context.Background(), candidateClaims("cand-1"), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Zero(t, apps.withdrawCalls)
	assert.Equal(t, deletedAt, *detail.DeletedAt)
}

func TestPipelineWithdrawOnlyOwningCandidate(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	err := service.Withdraw(context.Background(), candidateClaims("cand-2"), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = service.Withdraw(context.Background(), recruiterClaims(), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPipelineWithdrawAuditFailureNotSurfaced(t *testing.T) {
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("screening")}}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	audit := &auditRecorderStub{err: sql.ErrConnDone}
	members := &memberListStub{err: sql.ErrConnDone}
	service := newPipelineService(apps, jobs, members, &gateEvalStub{}, audit, &notifierStub{})

	err := service.Withdraw(context.Background(), candidateClaims("cand-1"), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, apps.withdrawCalls)
}

func TestPipelineListScopesCandidateToOwnApplications(t *testing.T) {
	apps := &applicationStoreStub{}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	_, _, err := service.List(context.Background(), candidateClaims("cand-1"), models.ApplicationFilter{CandidateID: "cand-9"})
	require.NoError(t, err)
	assert.Equal(t, "cand-1", apps.listFilter.CandidateID)
	assert.Empty(t, apps.listFilter.OrganizationID)
}

func TestPipelineListScopesStaffToOrganization(t *testing.T) {
	apps := &applicationStoreStub{}
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	service := newPipelineService(apps, jobs, &memberListStub{}, &gateEvalStub{}, &auditRecorderStub{}, &notifierStub{})

	_, _, err := service.List(context.Background(), recruiterClaims(), models.ApplicationFilter{})
	require.NoError(t, err)
	assert.Equal(t, "org-1", apps.listFilter.OrganizationID)
}
