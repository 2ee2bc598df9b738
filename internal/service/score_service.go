package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type scoreStore interface {
	UpsertAndRecompute(ctx context.Context, score *models.Score) (*models.RatingSummary, error)
	DeleteAndRecompute(ctx context.Context, scoreID string) (*models.RatingSummary, error)
	ListByTarget(ctx context.Context, targetType models.ScoreTargetType, targetID string) ([]models.Score, error)
	FindByRaterAndTarget(ctx context.Context, raterID string, targetType models.ScoreTargetType, targetID string) (*models.Score, error)
}

// ScoreService keeps the denormalized mean on rated entities consistent with
// the underlying score rows. One score per rater per target; a repeat rating
// replaces the previous row and the aggregate is fully recomputed in the
// same transaction.
type ScoreService struct {
	repo      scoreStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs the score service.
func NewScoreService(repo scoreStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScoreService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Upsert submits or replaces the actor's rating. Staff rate candidates;
// candidates rate organizations.
func (s *ScoreService) Upsert(ctx context.Context, claims *models.JWTClaims, req models.UpsertScoreRequest) (*models.RatingSummary, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	switch req.TargetType {
	case models.ScoreTargetCandidate:
		if !claims.IsStaff() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may rate candidates")
		}
	case models.ScoreTargetOrganization:
		if claims.Role != models.RoleCandidate {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only candidates may rate organizations")
		}
	}

	score := &models.Score{
		RaterID:    claims.UserID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	summary, err := s.repo.UpsertAndRecompute(ctx, score)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record score")
	}

	s.appendAudit(ctx, claims, models.AuditActionScoreUpsert, score.ID, map[string]string{
		"target_type": string(req.TargetType),
		"target_id":   req.TargetID,
		"rating":      fmt.Sprintf("%d", req.Rating),
	})
	return summary, nil
}

// Delete removes a score row, admin only, and recomputes the aggregate.
func (s *ScoreService) Delete(ctx context.Context, claims *models.JWTClaims, scoreID string) (*models.RatingSummary, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may delete scores")
	}

	summary, err := s.repo.DeleteAndRecompute(ctx, scoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score")
	}

	s.appendAudit(ctx, claims, models.AuditActionScoreDelete, scoreID, nil)
	return summary, nil
}

// ListByTarget returns the score rows behind a target's aggregate.
func (s *ScoreService) ListByTarget(ctx context.Context, claims *models.JWTClaims, targetType models.ScoreTargetType, targetID string) ([]models.Score, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if !targetType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown score target type")
	}
	scores, err := s.repo.ListByTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, nil
}

// Mine returns the actor's existing score for a target, if any.
func (s *ScoreService) Mine(ctx context.Context, claims *models.JWTClaims, targetType models.ScoreTargetType, targetID string) (*models.Score, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	score, err := s.repo.FindByRaterAndTarget(ctx, claims.UserID, targetType, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	return score, nil
}

func (s *ScoreService) appendAudit(ctx context.Context, claims *models.JWTClaims, action, scoreID string, changes map[string]string) {
	payload, _ := json.Marshal(changes)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "score",
		ResourceID: &scoreID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("action", action),
			zap.String("score_id", scoreID),
			zap.Error(err))
	}
}
