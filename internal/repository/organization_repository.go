package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
)

// OrganizationRepository provides access to organizations, memberships, and
// reviewer job assignments.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindByID returns an organization by identifier.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, name, website, rating, rating_count, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &org, nil
}

// FindMember returns the membership row for an account within an organization.
func (r *OrganizationRepository) FindMember(ctx context.Context, organizationID, accountID string) (*models.OrgMember, error) {
	const query = `SELECT id, organization_id, account_id, role, created_at
        FROM org_members WHERE organization_id = $1 AND account_id = $2 LIMIT 1`
	var member models.OrgMember
	if err := r.db.GetContext(ctx, &member, query, organizationID, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find org member: %w", err)
	}
	return &member, nil
}

// FindMembershipByAccount returns the membership row for an account, if the
// account belongs to any organization. Candidates have none.
func (r *OrganizationRepository) FindMembershipByAccount(ctx context.Context, accountID string) (*models.OrgMember, error) {
	const query = `SELECT id, organization_id, account_id, role, created_at
        FROM org_members WHERE account_id = $1 LIMIT 1`
	var member models.OrgMember
	if err := r.db.GetContext(ctx, &member, query, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find membership by account: %w", err)
	}
	return &member, nil
}

// ListMemberAccountIDs returns the account IDs of members holding any of the
// given roles. Used to fan out notifications to ADMIN/RECRUITER staff.
func (r *OrganizationRepository) ListMemberAccountIDs(ctx context.Context, organizationID string, roles ...models.UserRole) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roles))
	args := make([]interface{}, 0, len(roles)+1)
	args = append(args, organizationID)
	for i, role := range roles {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, role)
	}
	query := fmt.Sprintf(`SELECT account_id FROM org_members WHERE organization_id = $1 AND role IN (%s)`,
		strings.Join(placeholders, ","))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list member accounts: %w", err)
	}
	return ids, nil
}

// HasJobAssignment reports whether a member is assigned to a job.
func (r *OrganizationRepository) HasJobAssignment(ctx context.Context, jobID, memberID string) (bool, error) {
	const query = `SELECT 1 FROM job_assignments WHERE job_id = $1 AND member_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, jobID, memberID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check job assignment: %w", err)
	}
	return true, nil
}
