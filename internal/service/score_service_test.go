package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

const scoreTargetID = "9c8d7e6f-5a4b-4c3d-8e2f-1a0b9c8d7e6f"

type scoreStoreStub struct {
	summary      models.RatingSummary
	upserted     []*models.Score
	deletedIDs   []string
	deleteErr    error
	mine         *models.Score
	targetScores []models.Score
}

func (s *scoreStoreStub) UpsertAndRecompute(ctx context.Context, score *models.Score) (*models.RatingSummary, error) {
	if score.ID == "" {
		score.ID = "score-new"
	}
	s.upserted = append(s.upserted, score)
	summary := s.summary
	return &summary, nil
}

func (s *scoreStoreStub) DeleteAndRecompute(ctx context.Context, scoreID string) (*models.RatingSummary, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	s.deletedIDs = append(s.deletedIDs, scoreID)
	summary := s.summary
	return &summary, nil
}

func (s *scoreStoreStub) ListByTarget(ctx context.Context, targetType models.ScoreTargetType, targetID string) ([]models.Score, error) {
	return s.targetScores, nil
}

func (s *scoreStoreStub) FindByRaterAndTarget(ctx context.Context, raterID string, targetType models.ScoreTargetType, targetID string) (*models.Score, error) {
	if s.mine == nil {
		return nil, sql.ErrNoRows
	}
	return s.mine, nil
}

func newScoreService(repo *scoreStoreStub, audit *auditRecorderStub) *ScoreService {
	return NewScoreService(repo, audit, nil, zap.NewNop())
}

func TestScoreUpsertReplacesAndReturnsSummary(t *testing.T) {
	repo := &scoreStoreStub{summary: models.RatingSummary{Rating: 2.7, Count: 3}}
	audit := &auditRecorderStub{}
	service := newScoreService(repo, audit)

	summary, err := service.Upsert(context.Background(), recruiterClaims(), models.UpsertScoreRequest{
		TargetType: models.ScoreTargetCandidate,
		TargetID:   scoreTargetID,
		Rating:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.7, summary.Rating)
	assert.Equal(t, 3, summary.Count)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "rec-1", repo.upserted[0].RaterID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionScoreUpsert, audit.logs[0].Action)
}

func TestScoreUpsertRejectsOutOfRangeRating(t *testing.T) {
	repo := &scoreStoreStub{}
	service := newScoreService(repo, &auditRecorderStub{})

	for _, rating := range []int{0, 6} {
		_, err := service.Upsert(context.Background(), recruiterClaims(), models.UpsertScoreRequest{
			TargetType: models.ScoreTargetCandidate,
			TargetID:   scoreTargetID,
			Rating:     rating,
		})
		require.Error(t, err, rating)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.upserted)
}

func TestScoreUpsertCandidateTargetStaffOnly(t *testing.T) {
	service := newScoreService(&scoreStoreStub{}, &auditRecorderStub{})

	_, err := service.Upsert(context.Background(), candidateClaims("cand-1"), models.UpsertScoreRequest{
		TargetType: models.ScoreTargetCandidate,
		TargetID:   scoreTargetID,
		Rating:     5,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestScoreUpsertOrganizationTargetCandidateOnly(t *testing.T) {
	service := newScoreService(&scoreStoreStub{}, &auditRecorderStub{})

	_, err := service.Upsert(context.Background(), recruiterClaims(), models.UpsertScoreRequest{
		TargetType: models.ScoreTargetOrganization,
		TargetID:   scoreTargetID,
		Rating:     5,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestScoreDeleteAdminOnly(t *testing.T) {
	repo := &scoreStoreStub{summary: models.RatingSummary{Rating: 0, Count: 0}}
	service := newScoreService(repo, &auditRecorderStub{})

	_, err := service.Delete(context.Background(), recruiterClaims(), "score-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedIDs)

	admin := &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin, OrganizationID: "org-1"}
	summary, err := service.Delete(context.Background(), admin, "score-1")
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.Equal(t, []string{"score-1"}, repo.deletedIDs)
}

func TestScoreDeleteMissingNotFound(t *testing.T) {
	repo := &scoreStoreStub{deleteErr: sql.ErrNoRows}
	service := newScoreService(repo, &auditRecorderStub{})

	admin := &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin, OrganizationID: "org-1"}
	_, err := service.Delete(context.Background(), admin, "score-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScoreMineMissingNotFound(t *testing.T) {
	service := newScoreService(&scoreStoreStub{}, &auditRecorderStub{})

	_, err := service.Mine(context.Background(), candidateClaims("cand-1"), models.ScoreTargetOrganization, scoreTargetID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScoreListRejectsUnknownTargetType(t *testing.T) {
	service := newScoreService(&scoreStoreStub{}, &auditRecorderStub{})

	_, err := service.ListByTarget(context.Background(), recruiterClaims(), models.ScoreTargetType("JOB"), scoreTargetID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
