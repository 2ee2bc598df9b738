package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/export"
)

type offerStore interface {
	FindByID(ctx context.Context, id string) (*models.Offer, error)
	FindLiveByApplication(ctx context.Context, applicationID string) (*models.Offer, error)
	CreateWithStage(ctx context.Context, offer *models.Offer, at time.Time) error
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkViewedWithNotifications(ctx context.Context, id string, at time.Time, notifications []models.Notification) error
	MarkSigned(ctx context.Context, id string, at time.Time) error
	WithdrawAndRevertStage(ctx context.Context, id, applicationID, revertStage string, at time.Time) error
	UpdateLetterPath(ctx context.Context, id, path string) error
}

type offerOrganizationStore interface {
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	ListMemberAccountIDs(ctx context.Context, organizationID string, roles ...models.UserRole) ([]string, error)
}

type letterStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type letterSigner interface {
	Generate(entityID, relPath string) (string, time.Time, error)
	Parse(token string) (entityID, relPath string, expiresAt time.Time, err error)
}

// OfferServiceConfig tunes offer behaviour.
type OfferServiceConfig struct {
	// FallbackPreOfferStage is used on withdrawal when the recorded
	// pre-offer stage is no longer part of the job funnel.
	FallbackPreOfferStage string
}

// OfferService drives the offer state machine and its coupling to the owning
// application's stage. Forward transitions are DRAFT, SENT, VIEWED, SIGNED in
// order; WITHDRAWN is reachable from any non-terminal state and reverts the
// application to its pre-offer stage in the same transaction.
type OfferService struct {
	offers        offerStore
	applications  pipelineApplicationStore
	jobsRepo      pipelineJobStore
	organizations offerOrganizationStore
	access        *AccessService
	audit         auditAppender
	notifications notificationEnqueuer
	letters       *export.OfferLetterRenderer
	storage       letterStorage
	signer        letterSigner
	logger        *zap.Logger
	cfg           OfferServiceConfig
}

// NewOfferService constructs the offer service.
func NewOfferService(
	offers offerStore,
	applications pipelineApplicationStore,
	jobsRepo pipelineJobStore,
	organizations offerOrganizationStore,
	access *AccessService,
	audit auditAppender,
	notifications notificationEnqueuer,
	letters *export.OfferLetterRenderer,
	storage letterStorage,
	signer letterSigner,
	logger *zap.Logger,
	cfg OfferServiceConfig,
) *OfferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FallbackPreOfferStage == "" {
		cfg.FallbackPreOfferStage = "interview"
	}
	return &OfferService{
		offers:        offers,
		applications:  applications,
		jobsRepo:      jobsRepo,
		organizations: organizations,
		access:        access,
		audit:         audit,
		notifications: notifications,
		letters:       letters,
		storage:       storage,
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
}

// Get returns one offer, visible to staff with job access and to the owning
// candidate.
func (s *OfferService) Get(ctx context.Context, claims *models.JWTClaims, offerID string) (*models.Offer, error) {
	offer, detail, job, err := s.load(ctx, claims, offerID)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleCandidate {
		if detail.CandidateID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return offer, nil
	}
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return nil, err
	}
	return offer, nil
}

// Create extends an offer to an application. The new DRAFT offer and the
// application's move into the offer stage commit together.
func (s *OfferService) Create(ctx context.Context, claims *models.JWTClaims, applicationID string) (*models.Offer, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}

	detail, err := s.applications.FindDetailByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if detail.DeletedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}

	job, err := s.jobsRepo.FindByID(ctx, detail.JobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return nil, err
	}
	if !claims.IsElevated() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only recruiters and admins may extend offers")
	}

	if _, err := s.offers.FindLiveByApplication(ctx, applicationID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application already has a live offer")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing offer")
	}

	now := time.Now().UTC()
	offer := &models.Offer{
		ApplicationID:  applicationID,
		OrganizationID: detail.OrganizationID,
		Status:         models.OfferStatusDraft,
		PreviousStage:  detail.Stage,
		CreatedBy:      claims.UserID,
		CreatedAt:      now,
	}
	if err := s.offers.CreateWithStage(ctx, offer, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application was withdrawn")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offer")
	}

	s.appendAudit(ctx, claims, models.AuditActionOfferCreate, offer.ID, map[string]string{
		"application_id": applicationID,
		"previous_stage": offer.PreviousStage,
	})
	s.notifyCandidate(detail, models.NotificationTypeOfferCreated,
		"Offer extended",
		fmt.Sprintf("An offer has been prepared for your application to %s", detail.JobTitle),
		offer.ID, false)

	return offer, nil
}

// Send moves a DRAFT offer to SENT and notifies the candidate.
func (s *OfferService) Send(ctx context.Context, claims *models.JWTClaims, offerID string) (*models.Offer, error) {
	offer, detail, job, err := s.load(ctx, claims, offerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireElevated(ctx, claims, job); err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("offer is %s, only DRAFT offers can be sent", offer.Status))
	}

	now := time.Now().UTC()
	if err := s.offers.MarkSent(ctx, offerID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "offer is no longer in draft")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send offer")
	}

	s.appendAudit(ctx, claims, models.AuditActionOfferSend, offerID, nil)
	s.notifyCandidate(detail, models.NotificationTypeOfferCreated,
		"Offer received",
		fmt.Sprintf("You have received an offer for %s", detail.JobTitle),
		offerID, true)

	return s.reload(ctx, offerID)
}

// RecordView marks a SENT offer as VIEWED. Idempotent: once past SENT the
// call is a no-op returning the current row. On the first transition the
// staff notification rows are written inside the same transaction, so the
// in-app inbox can never disagree with the offer's viewed status.
func (s *OfferService) RecordView(ctx context.Context, claims *models.JWTClaims, offerID string) (*models.Offer, error) {
	offer, detail, _, err := s.load(ctx, claims, offerID)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleCandidate || detail.CandidateID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
	}

	if offer.Status != models.OfferStatusSent {
		return offer, nil
	}

	accountIDs, err := s.organizations.ListMemberAccountIDs(ctx, offer.OrganizationID, models.RoleAdmin, models.RoleRecruiter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve staff recipients")
	}
	data, _ := json.Marshal(map[string]string{"offer_id": offerID, "application_id": offer.ApplicationID})
	rows := make([]models.Notification, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		rows = append(rows, models.Notification{
			AccountID: accountID,
			Type:      models.NotificationTypeOfferViewed,
			Title:     "Offer viewed",
			Body:      fmt.Sprintf("%s viewed the offer for %s", detail.CandidateName, detail.JobTitle),
			Data:      data,
		})
	}

	now := time.Now().UTC()
	if err := s.offers.MarkViewedWithNotifications(ctx, offerID, now, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race with another view; the first one won.
			return s.reload(ctx, offerID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record offer view")
	}

	s.appendAudit(ctx, claims, models.AuditActionOfferView, offerID, nil)
	return s.reload(ctx, offerID)
}

// Sign moves a VIEWED offer to SIGNED, the happy terminal state.
func (s *OfferService) Sign(ctx context.Context, claims *models.JWTClaims, offerID string) (*models.Offer, error) {
	offer, detail, _, err := s.load(ctx, claims, offerID)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleCandidate || detail.CandidateID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
	}
	if offer.Status != models.OfferStatusViewed {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("offer is %s, only VIEWED offers can be signed", offer.Status))
	}

	now := time.Now().UTC()
	if err := s.offers.MarkSigned(ctx, offerID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "offer is no longer viewable for signing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign offer")
	}

	s.appendAudit(ctx, claims, models.AuditActionOfferSign, offerID, nil)
	s.notifyStaffOfOffer(ctx, offer, detail, models.NotificationTypeOfferSigned,
		"Offer signed",
		fmt.Sprintf("%s signed the offer for %s", detail.CandidateName, detail.JobTitle))

	return s.reload(ctx, offerID)
}

// Withdraw retracts a non-terminal offer and reverts the application to its
// pre-offer stage. Both writes commit together; no reader can observe a
// withdrawn offer with the application still in the offer stage.
func (s *OfferService) Withdraw(ctx context.Context, claims *models.JWTClaims, offerID string) (*models.Offer, error) {
	offer, detail, job, err := s.load(ctx, claims, offerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireElevated(ctx, claims, job); err != nil {
		return nil, err
	}
	if offer.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("offer is already %s", offer.Status))
	}

	revertStage := offer.PreviousStage
	if revertStage == "" || !job.HasStage(revertStage) {
		if prior := job.StageBefore(models.StageOffer); prior != "" {
			revertStage = prior
		} else {
			revertStage = s.cfg.FallbackPreOfferStage
		}
	}

	now := time.Now().UTC()
	if err := s.offers.WithdrawAndRevertStage(ctx, offerID, offer.ApplicationID, revertStage, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "offer was already resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw offer")
	}

	s.appendAudit(ctx, claims, models.AuditActionOfferWithdraw, offerID, map[string]string{
		"reverted_stage": revertStage,
	})
	s.notifyCandidate(detail, models.NotificationTypeOfferWithdrawn,
		"Offer withdrawn",
		fmt.Sprintf("The offer for %s has been withdrawn", detail.JobTitle),
		offerID, true)

	return s.reload(ctx, offerID)
}

// GenerateLetter renders the offer letter PDF, stores it, and returns a
// signed download token.
func (s *OfferService) GenerateLetter(ctx context.Context, claims *models.JWTClaims, offerID string) (string, time.Time, error) {
	offer, detail, job, err := s.load(ctx, claims, offerID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.requireElevated(ctx, claims, job); err != nil {
		return "", time.Time{}, err
	}
	if offer.Status == models.OfferStatusWithdrawn {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrConflict, "cannot generate a letter for a withdrawn offer")
	}

	org, err := s.organizations.FindByID(ctx, offer.OrganizationID)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}

	pdf, err := s.letters.Render(export.OfferLetterData{
		OrganizationName: org.Name,
		CandidateName:    detail.CandidateName,
		JobTitle:         detail.JobTitle,
		Reference:        offer.ID,
		IssuedAt:         time.Now().UTC(),
	})
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render offer letter")
	}

	relPath := fmt.Sprintf("offers/%s.pdf", offer.ID)
	if _, err := s.storage.Save(relPath, pdf); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store offer letter")
	}
	if err := s.offers.UpdateLetterPath(ctx, offer.ID, relPath); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record offer letter path")
	}

	token, expiresAt, err := s.signer.Generate(offer.ID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign letter url")
	}
	return token, expiresAt, nil
}

// OpenLetter resolves a signed token to the stored letter file. Token
// validity is the sole authorization; the link is the capability.
func (s *OfferService) OpenLetter(ctx context.Context, token string) (*os.File, error) {
	offerID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	if offer.LetterPath == nil || *offer.LetterPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "offer letter not found")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open offer letter")
	}
	return file, nil
}

func (s *OfferService) load(ctx context.Context, claims *models.JWTClaims, offerID string) (*models.Offer, *models.ApplicationDetail, *models.Job, error) {
	if claims == nil {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	detail, err := s.applications.FindDetailByID(ctx, offer.ApplicationID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	job, err := s.jobsRepo.FindByID(ctx, detail.JobID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return offer, detail, job, nil
}

func (s *OfferService) requireElevated(ctx context.Context, claims *models.JWTClaims, job *models.Job) error {
	if err := s.access.CanAccessJob(ctx, claims, job); err != nil {
		return err
	}
	if !claims.IsElevated() {
		return appErrors.Clone(appErrors.ErrForbidden, "only recruiters and admins may manage offers")
	}
	return nil
}

func (s *OfferService) reload(ctx context.Context, offerID string) (*models.Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload offer")
	}
	return offer, nil
}

func (s *OfferService) appendAudit(ctx context.Context, claims *models.JWTClaims, action, offerID string, changes map[string]string) {
	var payload []byte
	if changes != nil {
		payload, _ = json.Marshal(changes)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "offer",
		ResourceID: &offerID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("action", action),
			zap.String("offer_id", offerID),
			zap.Error(err))
	}
}

func (s *OfferService) notifyCandidate(detail *models.ApplicationDetail, notificationType, title, body, offerID string, sendEmail bool) {
	data, _ := json.Marshal(map[string]string{"offer_id": offerID, "application_id": detail.ID})
	s.notifications.EnqueueAfterCommit([]models.Notification{{
		AccountID: detail.CandidateID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		Data:      data,
		SendEmail: sendEmail,
	}})
}

func (s *OfferService) notifyStaffOfOffer(ctx context.Context, offer *models.Offer, detail *models.ApplicationDetail, notificationType, title, body string) {
	accountIDs, err := s.organizations.ListMemberAccountIDs(ctx, offer.OrganizationID, models.RoleAdmin, models.RoleRecruiter)
	if err != nil {
		s.logger.Warn("failed to resolve staff recipients", zap.Error(err))
		return
	}
	data, _ := json.Marshal(map[string]string{"offer_id": offer.ID, "application_id": detail.ID})
	rows := make([]models.Notification, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		rows = append(rows, models.Notification{
			AccountID: accountID,
			Type:      notificationType,
			Title:     title,
			Body:      body,
			Data:      data,
			SendEmail: true,
		})
	}
	s.notifications.EnqueueAfterCommit(rows)
}
