package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type gateStoreStub struct {
	configs        map[string]*models.StageGateConfig
	scorecards     int
	interviews     int
	findCalls      int
	upserted       []*models.StageGateConfig
	scorecardCalls int
	interviewCalls int
}

func gateKey(jobID, stage string) string { return jobID + "|" + stage }

func (s *gateStoreStub) FindConfig(ctx context.Context, jobID, stage string) (*models.StageGateConfig, error) {
	s.findCalls++
	if config, ok := s.configs[gateKey(jobID, stage)]; ok {
		return config, nil
	}
	return nil, sql.ErrNoRows
}

func (s *gateStoreStub) ListConfigs(ctx context.Context, jobID string) ([]models.StageGateConfig, error) {
	var out []models.StageGateConfig
	for _, c := range s.configs {
		if c.JobID == jobID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *gateStoreStub) UpsertConfig(ctx context.Context, config *models.StageGateConfig) error {
	s.upserted = append(s.upserted, config)
	if s.configs == nil {
		s.configs = map[string]*models.StageGateConfig{}
	}
	s.configs[gateKey(config.JobID, config.Stage)] = config
	return nil
}

func (s *gateStoreStub) CountScorecards(ctx context.Context, applicationID, stage string) (int, error) {
	s.scorecardCalls++
	return s.scorecards, nil
}

func (s *gateStoreStub) CountCompletedInterviews(ctx context.Context, applicationID, stage string) (int, error) {
	s.interviewCalls++
	return s.interviews, nil
}

type cacheStub struct {
	values  map[string][]byte
	deleted []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *cacheStub) Delete(ctx context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	delete(c.values, key)
	return nil
}

func gateApplication(stage string) *models.Application {
	return &models.Application{ID: "app-1", JobID: "job-1", CandidateID: "cand-1", Stage: stage}
}

func TestStageGateEvaluateNoConfigOpenGate(t *testing.T) {
	store := &gateStoreStub{}
	service := NewStageGateService(store, newCacheStub(), nil, zap.NewNop(), time.Minute)

	blockers, err := service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	assert.Empty(t, blockers)
	assert.Zero(t, store.scorecardCalls)
}

func TestStageGateEvaluateScorecardShortfall(t *testing.T) {
	store := &gateStoreStub{
		configs: map[string]*models.StageGateConfig{
			gateKey("job-1", "interview"): {JobID: "job-1", Stage: "interview", MinScorecards: 2},
		},
		scorecards: 1,
	}
	service := NewStageGateService(store, newCacheStub(), nil, zap.NewNop(), time.Minute)

	blockers, err := service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	require.Len(t, blockers, 1)
	assert.Equal(t, models.BlockerActionSubmitScorecard, blockers[0].Action)
	assert.Equal(t, 1, blockers[0].Current)
	assert.Equal(t, 2, blockers[0].Required)

	store.scorecards = 2
	blockers, err = service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	assert.Empty(t, blockers)
}

func TestStageGateEvaluateCombinedRequirements(t *testing.T) {
	store := &gateStoreStub{
		configs: map[string]*models.StageGateConfig{
			gateKey("job-1", "interview"): {JobID: "job-1", Stage: "interview", MinScorecards: 1, MinInterviews: 2},
		},
		scorecards: 1,
		interviews: 0,
	}
	service := NewStageGateService(store, newCacheStub(), nil, zap.NewNop(), time.Minute)

	blockers, err := service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	require.Len(t, blockers, 1)
	assert.Equal(t, models.BlockerActionHoldInterview, blockers[0].Action)
	assert.Equal(t, 0, blockers[0].Current)
	assert.Equal(t, 2, blockers[0].Required)
}

func TestStageGateConfigCachedAcrossEvaluations(t *testing.T) {
	store := &gateStoreStub{
		configs: map[string]*models.StageGateConfig{
			gateKey("job-1", "interview"): {JobID: "job-1", Stage: "interview", MinScorecards: 1},
		},
		scorecards: 1,
	}
	service := NewStageGateService(store, newCacheStub(), nil, zap.NewNop(), time.Minute)

	_, err := service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	_, err = service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.findCalls)
}

func TestStageGateMissingConfigCachedToo(t *testing.T) {
	store := &gateStoreStub{}
	service := NewStageGateService(store, newCacheStub(), nil, zap.NewNop(), time.Minute)

	_, err := service.Evaluate(context.Background(), gateApplication("screening"))
	require.NoError(t, err)
	_, err = service.Evaluate(context.Background(), gateApplication("screening"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.findCalls)
}

func TestStageGatePutConfigValidatesStage(t *testing.T) {
	service := NewStageGateService(&gateStoreStub{}, newCacheStub(), nil, zap.NewNop(), time.Minute)

	_, err := service.PutConfig(context.Background(), testJob(), models.UpsertStageGateConfigRequest{
		Stage:         "unknown",
		MinScorecards: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStageGatePutConfigRejectsEmptyRequirements(t *testing.T) {
	service := NewStageGateService(&gateStoreStub{}, newCacheStub(), nil, zap.NewNop(), time.Minute)

	_, err := service.PutConfig(context.Background(), testJob(), models.UpsertStageGateConfigRequest{Stage: "interview"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStageGatePutConfigInvalidatesCache(t *testing.T) {
	store := &gateStoreStub{}
	cache := newCacheStub()
	service := NewStageGateService(store, cache, nil, zap.NewNop(), time.Minute)

	// Prime the cache with the open-gate answer, then tighten the gate.
	_, err := service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)

	_, err = service.PutConfig(context.Background(), testJob(), models.UpsertStageGateConfigRequest{
		Stage:         "interview",
		MinScorecards: 2,
	})
	require.NoError(t, err)
	require.Len(t, store.upserted, 1)
	assert.Contains(t, cache.deleted, "gatecfg:job-1:interview")

	blockers, err := service.Evaluate(context.Background(), gateApplication("interview"))
	require.NoError(t, err)
	require.Len(t, blockers, 1)
	assert.Equal(t, 2, blockers[0].Required)
}
