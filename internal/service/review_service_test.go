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

type scorecardStoreStub struct {
	upserted []*models.Scorecard
	cards    []models.Scorecard
}

func (s *scorecardStoreStub) Upsert(ctx context.Context, card *models.Scorecard) error {
	if card.ID == "" {
		card.ID = "card-new"
	}
	s.upserted = append(s.upserted, card)
	return nil
}

func (s *scorecardStoreStub) ListByApplication(ctx context.Context, applicationID string) ([]models.Scorecard, error) {
	return s.cards, nil
}

type interviewStoreStub struct {
	created       []*models.Interview
	completeErr   error
	completedIDs  []string
	byApplication []models.Interview
}

func (s *interviewStoreStub) Create(ctx context.Context, interview *models.Interview) error {
	if interview.ID == "" {
		interview.ID = "iv-new"
	}
	s.created = append(s.created, interview)
	return nil
}

func (s *interviewStoreStub) Complete(ctx context.Context, id string) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completedIDs = append(s.completedIDs, id)
	return nil
}

func (s *interviewStoreStub) ListByApplication(ctx context.Context, applicationID string) ([]models.Interview, error) {
	return s.byApplication, nil
}

func newReviewService(cards *scorecardStoreStub, interviews *interviewStoreStub, apps *applicationStoreStub) *ReviewService {
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	access := NewAccessService(assignmentStub{allowed: true}, zap.NewNop())
	return NewReviewService(cards, interviews, apps, jobs, access, nil, zap.NewNop())
}

func TestSubmitScorecardAttachesCurrentStage(t *testing.T) {
	cards := &scorecardStoreStub{}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("screening")}}
	service := newReviewService(cards, &interviewStoreStub{}, apps)

	card, err := service.SubmitScorecard(context.Background(), recruiterClaims(), "app-1", models.SubmitScorecardRequest{
		Recommendation: models.RecommendationYes,
	})
	require.NoError(t, err)
	assert.Equal(t, "screening", card.Stage)
	assert.Equal(t, "rec-1", card.MemberID)
	require.Len(t, cards.upserted, 1)
}

func TestSubmitScorecardRejectsUnknownRecommendation(t *testing.T) {
	cards := &scorecardStoreStub{}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("screening")}}
	service := newReviewService(cards, &interviewStoreStub{}, apps)

	_, err := service.SubmitScorecard(context.Background(), recruiterClaims(), "app-1", models.SubmitScorecardRequest{
		Recommendation: "MAYBE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, cards.upserted)
}

func TestSubmitScorecardWithdrawnApplicationNotFound(t *testing.T) {
	detail := testDetail("screening")
	now := time.Now().UTC()
	detail.DeletedAt = &now
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": detail}}
	service := newReviewService(&scorecardStoreStub{}, &interviewStoreStub{}, apps)

	_, err := service.SubmitScorecard(context.Background(), recruiterClaims(), "app-1", models.SubmitScorecardRequest{
		Recommendation: models.RecommendationStrongYes,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleInterviewNormalizesToUTC(t *testing.T) {
	interviews := &interviewStoreStub{}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	service := newReviewService(&scorecardStoreStub{}, interviews, apps)

	loc := time.FixedZone("UTC+7", 7*3600)
	scheduledAt := time.Date(2026, 9, 14, 10, 0, 0, 0, loc)
	interview, err := service.ScheduleInterview(context.Background(), recruiterClaims(), "app-1", models.ScheduleInterviewRequest{
		ScheduledAt: scheduledAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "interview", interview.Stage)
	assert.Equal(t, time.UTC, interview.ScheduledAt.Location())
	assert.True(t, interview.ScheduledAt.Equal(scheduledAt))
}

func TestCompleteInterviewTwiceConflicts(t *testing.T) {
	interviews := &interviewStoreStub{}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	service := newReviewService(&scorecardStoreStub{}, interviews, apps)

	require.NoError(t, service.CompleteInterview(context.Background(), recruiterClaims(), "app-1", "iv-1"))
	assert.Equal(t, []string{"iv-1"}, interviews.completedIDs)

	interviews.completeErr = sql.ErrNoRows
	err := service.CompleteInterview(context.Background(), recruiterClaims(), "app-1", "iv-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
