package organizations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles organization and organization_members persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates an organization.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	const q = `INSERT INTO organizations (id, name, slug, description, website)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, org.Name, org.Slug, org.Description, org.Website).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, slug, COALESCE(description, ''), COALESCE(website, ''), created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.Slug, &org.Description, &org.Website, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetBySlug returns an organization by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	const q = `SELECT id, name, slug, COALESCE(description, ''), COALESCE(website, ''), created_at, updated_at FROM organizations WHERE slug = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, slug).Scan(&org.ID, &org.Name, &org.Slug, &org.Description, &org.Website, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// AddMember adds a user to an organization with a role and status.
func (r *Repository) AddMember(ctx context.Context, orgID, userID uuid.UUID, role, status string) error {
	const q = `INSERT INTO organization_members (id, organization_id, user_id, role, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, orgID, userID, role, status)
	return err
}

// ApproveMember flips a pending membership to approved. Returns false if
// there was no pending membership.
func (r *Repository) ApproveMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	const q = `UPDATE organization_members SET status = 'approved', updated_at = NOW()
		WHERE organization_id = $1 AND user_id = $2 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, orgID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MemberRole returns the user's role and status in the org, or empty strings.
func (r *Repository) MemberRole(ctx context.Context, orgID, userID uuid.UUID) (role, status string, err error) {
	const q = `SELECT role, status FROM organization_members WHERE organization_id = $1 AND user_id = $2`
	err = r.pool.QueryRow(ctx, q, orgID, userID).Scan(&role, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", nil
	}
	return role, status, err
}

// IsApprovedMember reports whether the user is an approved member of the org.
func (r *Repository) IsApprovedMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	role, status, err := r.MemberRole(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	return role != "" && status == models.MemberStatusApproved, nil
}

// IsOwner reports whether the user is an approved owner of the org.
func (r *Repository) IsOwner(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	role, status, err := r.MemberRole(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	return role == models.OrgRoleOwner && status == models.MemberStatusApproved, nil
}

// ListForUser returns organizations the user is an approved member of.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, COALESCE(o.description, ''), COALESCE(o.website, ''), o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN organization_members om ON om.organization_id = o.id
		WHERE om.user_id = $1 AND om.status = 'approved'
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Website, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// Member represents an organization member with user details.
type Member struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	AddedAt  time.Time `json:"added_at"`
}

// ListMembers returns members of an organization, pending included.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]Member, error) {
	const q = `SELECT om.id, om.user_id, u.email, COALESCE(u.full_name, ''), om.role, om.status, om.created_at
		FROM organization_members om
		INNER JOIN users u ON u.id = om.user_id
		WHERE om.organization_id = $1
		ORDER BY om.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FullName, &m.Role, &m.Status, &m.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
