package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
)

type accessAssignmentRepository interface {
	HasJobAssignment(ctx context.Context, jobID, memberID string) (bool, error)
}

// AccessService centralises the authorization checks every workflow command
// runs before touching state. Entities the actor cannot see are reported as
// not found rather than forbidden, so cross-organization probing reveals
// nothing.
type AccessService struct {
	assignments accessAssignmentRepository
	logger      *zap.Logger
}

// NewAccessService constructs an AccessService.
func NewAccessService(assignments accessAssignmentRepository, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{assignments: assignments, logger: logger}
}

// CanAccessJob checks whether the actor may operate on the given job.
// ADMIN and RECRUITER members see every job in their organization; REVIEWER
// members only jobs they are assigned to.
func (s *AccessService) CanAccessJob(ctx context.Context, claims *models.JWTClaims, job *models.Job) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if !claims.IsStaff() || claims.OrganizationID != job.OrganizationID {
		return appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	if claims.IsElevated() {
		return nil
	}
	assigned, err := s.assignments.HasJobAssignment(ctx, job.ID, claims.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check job assignment")
	}
	if !assigned {
		return appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return nil
}

// CanViewApplication checks read access: the owning candidate or any staff
// member with access to the application's job.
func (s *AccessService) CanViewApplication(ctx context.Context, claims *models.JWTClaims, detail *models.ApplicationDetail, job *models.Job) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if claims.Role == models.RoleCandidate {
		if detail.CandidateID != claims.UserID {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil
	}
	return s.CanAccessJob(ctx, claims, job)
}
