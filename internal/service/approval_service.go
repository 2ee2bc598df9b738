package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type approvalStore interface {
	Create(ctx context.Context, approval *models.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	FindPendingByKey(ctx context.Context, entityType, entityID, approvalType string) (*models.ApprovalRequest, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	Respond(ctx context.Context, id string, status models.ApprovalStatus, reason *string, at time.Time) error
}

type approvalMemberStore interface {
	FindMember(ctx context.Context, organizationID, accountID string) (*models.OrgMember, error)
}

// ApprovalService is a generic second-party sign-off gate keyed by
// (entityType, entityID, approvalType). A request resolves exactly once;
// APPROVED authorizes one downstream action and REJECTED permanently blocks
// that request.
type ApprovalService struct {
	repo          approvalStore
	members       approvalMemberStore
	audit         auditAppender
	notifications notificationEnqueuer
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewApprovalService constructs the approval service.
func NewApprovalService(repo approvalStore, members approvalMemberStore, audit auditAppender, notifications notificationEnqueuer, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApprovalService{repo: repo, members: members, audit: audit, notifications: notifications, validator: validate, logger: logger}
}

// Request creates a pending approval. A second request for the same key while
// one is still pending conflicts; callers should resolve or reuse it.
func (s *ApprovalService) Request(ctx context.Context, claims *models.JWTClaims, req models.CreateApprovalRequest) (*models.ApprovalRequest, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if !claims.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may request approvals")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	if req.ApproverID == claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an approval cannot be assigned to its requester")
	}

	if _, err := s.members.FindMember(ctx, claims.OrganizationID, req.ApproverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approver is not a member of your organization")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify approver")
	}

	if existing, err := s.repo.FindPendingByKey(ctx, req.EntityType, req.EntityID, req.ApprovalType); err == nil {
		return existing, appErrors.Clone(appErrors.ErrConflict, "an approval request for this action is already pending")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing approvals")
	}

	approval := &models.ApprovalRequest{
		EntityType:   req.EntityType,
		EntityID:     req.EntityID,
		ApprovalType: req.ApprovalType,
		RequestedBy:  claims.UserID,
		ApproverID:   req.ApproverID,
	}
	if err := s.repo.Create(ctx, approval); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval request")
	}

	s.appendAudit(ctx, claims, models.AuditActionApprovalRequest, approval.ID, map[string]string{
		"entity_type":   req.EntityType,
		"entity_id":     req.EntityID,
		"approval_type": req.ApprovalType,
	})
	s.notify(approval.ApproverID, models.NotificationTypeApprovalRequested,
		"Approval requested",
		fmt.Sprintf("%s requested your approval for %s on %s", claims.FullName, req.ApprovalType, req.EntityType),
		approval.ID)

	return approval, nil
}

// Respond resolves a pending approval. Only the designated approver may
// respond, and only once; a second response conflicts regardless of whether
// the requested status matches the first.
func (s *ApprovalService) Respond(ctx context.Context, claims *models.JWTClaims, id string, req models.RespondApprovalRequest) (*models.ApprovalRequest, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval response")
	}

	approval, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if approval.ApproverID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the designated approver may respond")
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("approval is already %s", approval.Status))
	}

	now := time.Now().UTC()
	if err := s.repo.Respond(ctx, id, req.Status, req.Reason, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "approval was already resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve approval")
	}

	s.appendAudit(ctx, claims, models.AuditActionApprovalRespond, id, map[string]string{
		"status": string(req.Status),
	})
	s.notify(approval.RequestedBy, models.NotificationTypeApprovalResolved,
		"Approval resolved",
		fmt.Sprintf("Your %s request was %s", approval.ApprovalType, req.Status),
		id)

	resolved, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload approval")
	}
	return resolved, nil
}

// Get returns one approval, visible to its requester and approver.
func (s *ApprovalService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.ApprovalRequest, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	approval, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}
	if approval.RequestedBy != claims.UserID && approval.ApproverID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "approval not found")
	}
	return approval, nil
}

// ListMine returns the actor's inbound approvals, optionally pending only.
func (s *ApprovalService) ListMine(ctx context.Context, claims *models.JWTClaims, pendingOnly bool) ([]models.ApprovalRequest, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	filter := models.ApprovalFilter{ApproverID: claims.UserID}
	if pendingOnly {
		filter.Status = []models.ApprovalStatus{models.ApprovalStatusPending}
	}
	approvals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}
	return approvals, nil
}

func (s *ApprovalService) appendAudit(ctx context.Context, claims *models.JWTClaims, action, approvalID string, changes map[string]string) {
	payload, _ := json.Marshal(changes)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "approval",
		ResourceID: &approvalID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("action", action),
			zap.String("approval_id", approvalID),
			zap.Error(err))
	}
}

func (s *ApprovalService) notify(accountID, notificationType, title, body, approvalID string) {
	data, _ := json.Marshal(map[string]string{"approval_id": approvalID})
	s.notifications.EnqueueAfterCommit([]models.Notification{{
		AccountID: accountID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		Data:      data,
		SendEmail: true,
	}})
}
