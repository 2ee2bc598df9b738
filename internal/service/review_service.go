package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type scorecardStore interface {
	Upsert(ctx context.Context, card *models.Scorecard) error
	ListByApplication(ctx context.Context, applicationID string) ([]models.Scorecard, error)
}

type interviewStore interface {
	Create(ctx context.Context, interview *models.Interview) error
	Complete(ctx context.Context, id string) error
	ListByApplication(ctx context.Context, applicationID string) ([]models.Interview, error)
}

// ReviewService records the scorecards and interviews whose counts the stage
// gate evaluator compares against configured requirements. Rows attach to the
// application's current stage at submission time.
type ReviewService struct {
	scorecards   scorecardStore
	interviews   interviewStore
	applications pipelineApplicationStore
	jobsRepo     pipelineJobStore
	access       *AccessService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReviewService constructs the review service.
func NewReviewService(
	scorecards scorecardStore,
	interviews interviewStore,
	applications pipelineApplicationStore,
	jobsRepo pipelineJobStore,
	access *AccessService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{
		scorecards:   scorecards,
		interviews:   interviews,
		applications: applications,
		jobsRepo:     jobsRepo,
		access:       access,
		validator:    validate,
		logger:       logger,
	}
}

// SubmitScorecard records or replaces the actor's scorecard for the
// application's current stage.
func (s *ReviewService) SubmitScorecard(ctx context.Context, claims *models.JWTClaims, applicationID string, req models.SubmitScorecardRequest) (*models.Scorecard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scorecard payload")
	}
	app, err := s.loadForStaff(ctx, claims, applicationID)
	if err != nil {
		return nil, err
	}

	card := &models.Scorecard{
		ApplicationID:  applicationID,
		Stage:          app.Stage,
		MemberID:       claims.UserID,
		Recommendation: req.Recommendation,
		Notes:          req.Notes,
	}
	if err := s.scorecards.Upsert(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit scorecard")
	}
	return card, nil
}

// ScheduleInterview books an interview for the application's current stage.
func (s *ReviewService) ScheduleInterview(ctx context.Context, claims *models.JWTClaims, applicationID string, req models.ScheduleInterviewRequest) (*models.Interview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interview payload")
	}
	app, err := s.loadForStaff(ctx, claims, applicationID)
	if err != nil {
		return nil, err
	}

	interview := &models.Interview{
		ApplicationID: applicationID,
		Stage:         app.Stage,
		ScheduledAt:   req.ScheduledAt.UTC(),
		CreatedBy:     claims.UserID,
	}
	if err := s.interviews.Create(ctx, interview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule interview")
	}
	return interview, nil
}

// CompleteInterview marks a scheduled interview as held. Only completed
// interviews count toward gate requirements.
func (s *ReviewService) CompleteInterview(ctx context.Context, claims *models.JWTClaims, applicationID, interviewID string) error {
	if _, err := s.loadForStaff(ctx, claims, applicationID); err != nil {
		return err
	}
	if err := s.interviews.Complete(ctx, interviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "interview is missing or already completed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete interview")
	}
	return nil
}

// ListScorecards returns every scorecard for an application.
func (s *ReviewService) ListScorecards(ctx context.Context, claims *models.JWTClaims, applicationID string) ([]models.Scorecard, error) {
	if _, err := s.loadForStaff(ctx, claims, applicationID); err != nil {
		return nil, err
	}
	cards, err := s.scorecards.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scorecards")
	}
	return cards, nil
}

// ListInterviews returns every interview for an application.
func (s *ReviewService) ListInterviews(ctx context.Context, claims *models.JWTClaims, applicationID string) ([]models.Interview, error) {
	if _, err := s.loadForStaff(ctx, claims, applicationID); err != nil {
		return nil, err
	}
	interviews, err := s.interviews.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interviews")
	}
	return interviews, nil
}

// loadForStaff resolves a live application and checks staff access to its job.
func (s *ReviewService) loadForStaff(ctx context.Context, claims *models.JWTClaims, applicationID string) (*models.Application, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.DeletedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	job, err := s.jobsRepo.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return nil, err
	}
	return app, nil
}
