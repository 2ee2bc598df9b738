package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/export"
	"github.com/noah-isme/hiring-pipeline-api/pkg/storage"
)

type offerStoreStub struct {
	offers          map[string]*models.Offer
	liveByApp       map[string]*models.Offer
	created         []*models.Offer
	viewedCalls     int
	viewedRows      []models.Notification
	withdrawnCalls  int
	revertedStage   string
	markSentCalls   int
	markSignedCalls int
	letterPaths     map[string]string
}

func (s *offerStoreStub) FindByID(ctx context.Context, id string) (*models.Offer, error) {
	if offer, ok := s.offers[id]; ok {
		return offer, nil
	}
	return nil, sql.ErrNoRows
}

func (s *offerStoreStub) FindLiveByApplication(ctx context.Context, applicationID string) (*models.Offer, error) {
	if offer, ok := s.liveByApp[applicationID]; ok {
		return offer, nil
	}
	return nil, sql.ErrNoRows
}

func (s *offerStoreStub) CreateWithStage(ctx context.Context, offer *models.Offer, at time.Time) error {
	if offer.ID == "" {
		offer.ID = "offer-new"
	}
	s.created = append(s.created, offer)
	return nil
}

func (s *offerStoreStub) MarkSent(ctx context.Context, id string, at time.Time) error {
	s.markSentCalls++
	offer, ok := s.offers[id]
	if !ok || offer.Status != models.OfferStatusDraft {
		return sql.ErrNoRows
	}
	offer.Status = models.OfferStatusSent
	offer.SentAt = &at
	return nil
}

func (s *offerStoreStub) MarkViewedWithNotifications(ctx context.Context, id string, at time.Time, notifications []models.Notification) error {
	s.viewedCalls++
	offer, ok := s.offers[id]
	if !ok || offer.Status != models.OfferStatusSent {
		return sql.ErrNoRows
	}
	offer.Status = models.OfferStatusViewed
	offer.ViewedAt = &at
	s.viewedRows = append(s.viewedRows, notifications...)
	return nil
}

func (s *offerStoreStub) MarkSigned(ctx context.Context, id string, at time.Time) error {
	s.markSignedCalls++
	offer, ok := s.offers[id]
	if !ok || offer.Status != models.OfferStatusViewed {
		return sql.ErrNoRows
	}
	offer.Status = models.OfferStatusSigned
	offer.SignedAt = &at
	return nil
}

func (s *offerStoreStub) WithdrawAndRevertStage(ctx context.Context, id, applicationID, revertStage string, at time.Time) error {
	s.withdrawnCalls++
	offer, ok := s.offers[id]
	if !ok || offer.Status.Terminal() {
		return sql.ErrNoRows
	}
	offer.Status = models.OfferStatusWithdrawn
	offer.WithdrawnAt = &at
	s.revertedStage = revertStage
	return nil
}

func (s *offerStoreStub) UpdateLetterPath(ctx context.Context, id, path string) error {
	if s.letterPaths == nil {
		s.letterPaths = map[string]string{}
	}
	s.letterPaths[id] = path
	if offer, ok := s.offers[id]; ok {
		offer.LetterPath = &path
	}
	return nil
}

type orgStoreStub struct {
	org        *models.Organization
	accountIDs []string
	listCalls  int
}

func (s *orgStoreStub) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	if s.org != nil {
		return s.org, nil
	}
	return nil, sql.ErrNoRows
}

func (s *orgStoreStub) ListMemberAccountIDs(ctx context.Context, organizationID string, roles ...models.UserRole) ([]string, error) {
	s.listCalls++
	return s.accountIDs, nil
}

type letterStorageStub struct {
	saved map[string][]byte
}

func (s *letterStorageStub) Save(filename string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *letterStorageStub) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func testOffer(status models.OfferStatus) *models.Offer {
	return &models.Offer{
		ID:             "offer-1",
		ApplicationID:  "app-1",
		OrganizationID: "org-1",
		Status:         status,
		PreviousStage:  "interview",
		CreatedBy:      "rec-1",
		CreatedAt:      time.Now().UTC(),
	}
}

func newOfferService(offers *offerStoreStub, apps *applicationStoreStub, orgs *orgStoreStub, audit *auditRecorderStub, notifier *notifierStub) *OfferService {
	jobs := jobStoreStub{jobs: map[string]*models.Job{"job-1": testJob()}}
	access := NewAccessService(assignmentStub{allowed: true}, zap.NewNop())
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewOfferService(offers, apps, jobs, orgs, access, audit, notifier,
		export.NewOfferLetterRenderer(), &letterStorageStub{}, signer, zap.NewNop(),
		OfferServiceConfig{FallbackPreOfferStage: "screening"})
}

func TestOfferCreateRecordsPreviousStage(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	audit := &auditRecorderStub{}
	notifier := &notifierStub{}
	service := newOfferService(offers, apps, &orgStoreStub{}, audit, notifier)

	offer, err := service.Create(context.Background(), recruiterClaims(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusDraft, offer.Status)
	assert.Equal(t, "interview", offer.PreviousStage)
	assert.Equal(t, "org-1", offer.OrganizationID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionOfferCreate, audit.logs[0].Action)
	require.Len(t, notifier.batches, 1)
}

func TestOfferCreateConflictWhenLiveOfferExists(t *testing.T) {
	offers := &offerStoreStub{liveByApp: map[string]*models.Offer{"app-1": testOffer(models.OfferStatusSent)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	_, err := service.Create(context.Background(), recruiterClaims(), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, offers.created)
}

func TestOfferCreateReviewerForbidden(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("interview")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	claims := &models.JWTClaims{UserID: "rev-1", Role: models.RoleReviewer, OrganizationID: "org-1"}
	_, err := service.Create(context.Background(), claims, "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestOfferSendRequiresDraft(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(models.OfferStatusSent)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	_, err := service.Send(context.Background(), recruiterClaims(), "offer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Zero(t, offers.markSentCalls)
}

func TestOfferRecordViewFirstTransitionWritesNotifications(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(models.OfferStatusSent)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	orgs := &orgStoreStub{accountIDs: []string{"admin-1", "rec-1"}}
	notifier := &notifierStub{}
	service := newOfferService(offers, apps, orgs, &auditRecorderStub{}, notifier)

	offer, err := service.RecordView(context.Background(), candidateClaims("cand-1"), "offer-1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusViewed, offer.Status)
	require.NotNil(t, offer.ViewedAt)
	assert.Equal(t, 1, offers.viewedCalls)
	// In-app rows travel with the transaction, not the async queue.
	require.Len(t, offers.viewedRows, 2)
	assert.Equal(t, models.NotificationTypeOfferViewed, offers.viewedRows[0].Type)
	assert.Empty(t, notifier.batches)
}

func TestOfferRecordViewIdempotent(t *testing.T) {
	viewedAt := time.Now().UTC().Add(-time.Hour)
	offer := testOffer(models.OfferStatusViewed)
	offer.ViewedAt = &viewedAt
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": offer}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	result, err := service.RecordView(context.Background(), candidateClaims("cand-1"), "offer-1")
	require.NoError(t, err)
	assert.Equal(t, viewedAt, *result.ViewedAt)
	assert.Zero(t, offers.viewedCalls)
	assert.Empty(t, offers.viewedRows)
}

func TestOfferRecordViewOnlyOwningCandidate(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(models.OfferStatusSent)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	_, err := service.RecordView(context.Background(), candidateClaims("cand-9"), "offer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOfferSignRequiresViewed(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(models.OfferStatusSent)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	_, err := service.Sign(context.Background(), candidateClaims("cand-1"), "offer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Zero(t, offers.markSignedCalls)
}

func TestOfferWithdrawRevertsToPreviousStage(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(models.OfferStatusSent)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	audit := &auditRecorderStub{}
	notifier := &notifierStub{}
	service := newOfferService(offers, apps, &orgStoreStub{}, audit, notifier)

	offer, err := service.Withdraw(context.Background(), recruiterClaims(), "offer-1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusWithdrawn, offer.Status)
	assert.Equal(t, "interview", offers.revertedStage)
	require.Len(t, notifier.batches, 1)
	assert.Equal(t, models.NotificationTypeOfferWithdrawn, notifier.batches[0][0].Type)
}

func TestOfferWithdrawFallsBackWhenPreviousStageGone(t *testing.T) {
	offer := testOffer(models.OfferStatusDraft)
	offer.PreviousStage = "phone-screen"
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": offer}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

	_, err := service.Withdraw(context.Background(), recruiterClaims(), "offer-1")
	require.NoError(t, err)
	// The recorded stage is no longer in the funnel; the stage before
	// "offer" wins over the configured fallback.
	assert.Equal(t, "interview", offers.revertedStage)
}

func TestOfferWithdrawTerminalConflict(t *testing.T) {
	for _, status := range []models.OfferStatus{models.OfferStatusSigned, models.OfferStatusWithdrawn} {
		offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(status)}}
		apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
		service := newOfferService(offers, apps, &orgStoreStub{}, &auditRecorderStub{}, &notifierStub{})

		_, err := service.Withdraw(context.Background(), recruiterClaims(), "offer-1")
		require.Error(t, err, string(status))
		assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
		assert.Zero(t, offers.withdrawnCalls)
	}
}

func TestOfferGenerateLetterStoresAndSigns(t *testing.T) {
	offers := &offerStoreStub{offers: map[string]*models.Offer{"offer-1": testOffer(models.OfferStatusDraft)}}
	apps := &applicationStoreStub{apps: map[string]*models.ApplicationDetail{"app-1": testDetail("offer")}}
	orgs := &orgStoreStub{org: &models.Organization{ID: "org-1", Name: "Acme"}}
	service := newOfferService(offers, apps, orgs, &auditRecorderStub{}, &notifierStub{})

	token, expiresAt, err := service.GenerateLetter(context.Background(), recruiterClaims(), "offer-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.Equal(t, "offers/offer-1.pdf", offers.letterPaths["offer-1"])
}
