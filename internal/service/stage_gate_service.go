package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type gateConfigStore interface {
	FindConfig(ctx context.Context, jobID, stage string) (*models.StageGateConfig, error)
	ListConfigs(ctx context.Context, jobID string) ([]models.StageGateConfig, error)
	UpsertConfig(ctx context.Context, config *models.StageGateConfig) error
	CountScorecards(ctx context.Context, applicationID, stage string) (int, error)
	CountCompletedInterviews(ctx context.Context, applicationID, stage string) (int, error)
}

type gateCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type gateMetricsRecorder interface {
	RecordCacheOperation(hit bool)
	RecordGateEvaluation(blocked bool)
}

// cachedGateConfig records presence alongside the row so a missing config is
// cached too and does not hit the database on every evaluation.
type cachedGateConfig struct {
	Found  bool                   `json:"found"`
	Config models.StageGateConfig `json:"config"`
}

// StageGateService evaluates typed gate requirements against the current
// state of an application. Evaluation never mutates anything and never errors
// on unmet requirements; blockers are data, not failures.
type StageGateService struct {
	repo      gateConfigStore
	cache     gateCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
	metrics   gateMetricsRecorder
}

// NewStageGateService constructs the stage gate service.
func NewStageGateService(repo gateConfigStore, cache gateCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *StageGateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StageGateService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// WithMetrics attaches a metrics recorder for cache and evaluation outcomes.
func (s *StageGateService) WithMetrics(metrics gateMetricsRecorder) *StageGateService {
	s.metrics = metrics
	return s
}

func gateConfigCacheKey(jobID, stage string) string {
	return fmt.Sprintf("gatecfg:%s:%s", jobID, stage)
}

// Evaluate returns the unmet requirements for moving the application out of
// its current stage. Gates hang on the stage being left, so a job with no
// config for that stage has an open gate.
func (s *StageGateService) Evaluate(ctx context.Context, app *models.Application) ([]models.Blocker, error) {
	config, err := s.loadConfig(ctx, app.JobID, app.Stage)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, nil
	}

	var blockers []models.Blocker

	if config.MinScorecards > 0 {
		current, err := s.repo.CountScorecards(ctx, app.ID, app.Stage)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scorecards")
		}
		if current < config.MinScorecards {
			blockers = append(blockers, models.Blocker{
				Action:   models.BlockerActionSubmitScorecard,
				Message:  fmt.Sprintf("%d of %d required scorecards submitted", current, config.MinScorecards),
				Current:  current,
				Required: config.MinScorecards,
			})
		}
	}

	if config.MinInterviews > 0 {
		current, err := s.repo.CountCompletedInterviews(ctx, app.ID, app.Stage)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count interviews")
		}
		if current < config.MinInterviews {
			blockers = append(blockers, models.Blocker{
				Action:   models.BlockerActionHoldInterview,
				Message:  fmt.Sprintf("%d of %d required interviews completed", current, config.MinInterviews),
				Current:  current,
				Required: config.MinInterviews,
			})
		}
	}

	if s.metrics != nil {
		s.metrics.RecordGateEvaluation(len(blockers) > 0)
	}
	return blockers, nil
}

// GetConfig returns the gate configuration for a job stage, or nil when the
// gate is open.
func (s *StageGateService) GetConfig(ctx context.Context, jobID, stage string) (*models.StageGateConfig, error) {
	return s.loadConfig(ctx, jobID, stage)
}

// ListConfigs returns every gate configuration for a job.
func (s *StageGateService) ListConfigs(ctx context.Context, jobID string) ([]models.StageGateConfig, error) {
	configs, err := s.repo.ListConfigs(ctx, jobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gate configs")
	}
	return configs, nil
}

// PutConfig validates and writes a gate configuration. Requirements are
// checked here, at write time, so evaluation never sees a malformed config.
func (s *StageGateService) PutConfig(ctx context.Context, job *models.Job, req models.UpsertStageGateConfigRequest) (*models.StageGateConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gate config payload")
	}
	if !job.HasStage(req.Stage) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("stage %q is not part of the job funnel", req.Stage))
	}
	if req.MinScorecards == 0 && req.MinInterviews == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gate config must require at least one scorecard or interview")
	}

	config := &models.StageGateConfig{
		JobID:         job.ID,
		Stage:         req.Stage,
		MinScorecards: req.MinScorecards,
		MinInterviews: req.MinInterviews,
	}
	if err := s.repo.UpsertConfig(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write gate config")
	}

	if err := s.cache.Delete(ctx, gateConfigCacheKey(job.ID, req.Stage)); err != nil {
		s.logger.Warn("failed to invalidate gate config cache", zap.Error(err))
	}

	return config, nil
}

func (s *StageGateService) loadConfig(ctx context.Context, jobID, stage string) (*models.StageGateConfig, error) {
	key := gateConfigCacheKey(jobID, stage)

	var cached cachedGateConfig
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(true)
		}
		if !cached.Found {
			return nil, nil
		}
		return &cached.Config, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("gate config cache read failed", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(false)
	}

	config, err := s.repo.FindConfig(ctx, jobID, stage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if err := s.cache.Set(ctx, key, cachedGateConfig{Found: false}, s.cacheTTL); err != nil {
				s.logger.Warn("gate config cache write failed", zap.Error(err))
			}
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gate config")
	}

	if err := s.cache.Set(ctx, key, cachedGateConfig{Found: true, Config: *config}, s.cacheTTL); err != nil {
		s.logger.Warn("gate config cache write failed", zap.Error(err))
	}
	return config, nil
}
