package organizations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigboard/backend/internal/models"
)

// ErrSectionWrongOrganization is returned when a section is assigned
// across organization boundaries.
var ErrSectionWrongOrganization = errors.New("section does not belong to the membership's organization")

// Repository handles organization, section and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates an organization together with its sentinel default
// section, in one transaction.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertOrg = `INSERT INTO organizations (id, name, slug, timezone)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertOrg, org.Name, org.Slug, org.Timezone).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return err
	}

	const insertDefault = `INSERT INTO sections (id, organization_id, name, display_order, is_default)
		VALUES (gen_random_uuid(), $1, 'No Section', 0, TRUE)`
	if _, err := tx.Exec(ctx, insertDefault, org.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, slug, timezone, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.Slug, &org.Timezone, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetBySlug returns an organization by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	const q = `SELECT id, name, slug, timezone, created_at, updated_at FROM organizations WHERE slug = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, slug).Scan(&org.ID, &org.Name, &org.Slug, &org.Timezone, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// DefaultSection returns the organization's sentinel default section.
func (r *Repository) DefaultSection(ctx context.Context, orgID uuid.UUID) (*models.Section, error) {
	const q = `SELECT id, organization_id, name, display_order, is_default, created_at
		FROM sections WHERE organization_id = $1 AND is_default`
	var s models.Section
	err := r.pool.QueryRow(ctx, q, orgID).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.DisplayOrder, &s.IsDefault, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSection adds a non-default section to an organization.
func (r *Repository) CreateSection(ctx context.Context, s *models.Section) error {
	const q = `INSERT INTO sections (id, organization_id, name, display_order, is_default)
		VALUES (gen_random_uuid(), $1, $2, $3, FALSE)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, s.OrganizationID, s.Name, s.DisplayOrder).Scan(&s.ID, &s.CreatedAt)
}

// ListSections returns an organization's sections in display order, the
// default section first.
func (r *Repository) ListSections(ctx context.Context, orgID uuid.UUID) ([]models.Section, error) {
	const q = `SELECT id, organization_id, name, display_order, is_default, created_at
		FROM sections WHERE organization_id = $1
		ORDER BY is_default DESC, display_order, name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.DisplayOrder, &s.IsDefault, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetSection returns a section by ID.
func (r *Repository) GetSection(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	const q = `SELECT id, organization_id, name, display_order, is_default, created_at FROM sections WHERE id = $1`
	var s models.Section
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.DisplayOrder, &s.IsDefault, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AddMembership adds a user to an organization. The default section is
// always the organization's sentinel section at creation; explicit
// defaults are assigned later via UpdateDefaultSection.
func (r *Repository) AddMembership(ctx context.Context, m *models.Membership) error {
	const q = `INSERT INTO memberships (id, organization_id, user_id, status, is_occasional, email_me, hide_from_schedule, default_section_id)
		SELECT gen_random_uuid(), $1, $2, $3, $4, $5, $6, s.id
		FROM sections s WHERE s.organization_id = $1 AND s.is_default
		ON CONFLICT (organization_id, user_id) DO NOTHING
		RETURNING id, default_section_id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, m.OrganizationID, m.UserID, string(m.Status), m.IsOccasional, m.EmailMe, m.HideFromSchedule).
		Scan(&m.ID, &m.DefaultSectionID, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		// Already a member; return the existing row.
		existing, getErr := r.GetMembershipByOrgAndUser(ctx, m.OrganizationID, m.UserID)
		if getErr != nil {
			return getErr
		}
		*m = *existing
		return nil
	}
	return err
}

// GetMembership returns a membership by ID.
func (r *Repository) GetMembership(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	const q = `SELECT id, organization_id, user_id, status, is_occasional, email_me, hide_from_schedule, default_section_id, created_at, updated_at
		FROM memberships WHERE id = $1`
	var m models.Membership
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status, &m.IsOccasional,
		&m.EmailMe, &m.HideFromSchedule, &m.DefaultSectionID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembershipByOrgAndUser returns the membership for an (org, user) pair.
func (r *Repository) GetMembershipByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	const q = `SELECT id, organization_id, user_id, status, is_occasional, email_me, hide_from_schedule, default_section_id, created_at, updated_at
		FROM memberships WHERE organization_id = $1 AND user_id = $2`
	var m models.Membership
	err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status, &m.IsOccasional,
		&m.EmailMe, &m.HideFromSchedule, &m.DefaultSectionID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMembershipFlags updates status and notification preferences.
func (r *Repository) UpdateMembershipFlags(ctx context.Context, id uuid.UUID, status models.MembershipStatus, isOccasional, emailMe, hideFromSchedule bool) error {
	const q = `UPDATE memberships SET status = $1, is_occasional = $2, email_me = $3, hide_from_schedule = $4, updated_at = NOW()
		WHERE id = $5`
	_, err := r.pool.Exec(ctx, q, string(status), isOccasional, emailMe, hideFromSchedule, id)
	return err
}

// ConfirmMembership marks a membership as confirmed.
func (r *Repository) ConfirmMembership(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE memberships SET status = 'confirmed', updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// UpdateDefaultSection changes a membership's default section and, in the
// same transaction, re-resolves the section of every plan of that
// membership that has no explicit override. Both writes commit together
// or not at all, so no stale section is observable afterward.
func (r *Repository) UpdateDefaultSection(ctx context.Context, membershipID, sectionID uuid.UUID) error {
	section, err := r.GetSection(ctx, sectionID)
	if err != nil {
		return fmt.Errorf("section lookup: %w", err)
	}
	membership, err := r.GetMembership(ctx, membershipID)
	if err != nil {
		return fmt.Errorf("membership lookup: %w", err)
	}
	if section.OrganizationID != membership.OrganizationID {
		return ErrSectionWrongOrganization
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateMembership = `UPDATE memberships SET default_section_id = $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.Exec(ctx, updateMembership, sectionID, membershipID); err != nil {
		return err
	}

	const cascadePlans = `UPDATE plans SET section_id = $1, updated_at = NOW()
		WHERE membership_id = $2 AND plan_section_id IS NULL`
	if _, err := tx.Exec(ctx, cascadePlans, sectionID, membershipID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UserHasOrgAccess returns true if the user holds any membership in the org.
func (r *Repository) UserHasOrgAccess(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	const q = `SELECT 1 FROM memberships WHERE organization_id = $1 AND user_id = $2`
	var one int
	err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&one)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListOrganizationsForUser returns organizations the user is a member of.
func (r *Repository) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.timezone, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN memberships m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Timezone, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// Member is a membership joined with user details for roster views.
type Member struct {
	ID               uuid.UUID               `json:"id"`
	UserID           uuid.UUID               `json:"user_id"`
	Email            string                  `json:"email"`
	FullName         string                  `json:"full_name"`
	Status           models.MembershipStatus `json:"status"`
	IsOccasional     bool                    `json:"is_occasional"`
	EmailMe          bool                    `json:"email_me"`
	HideFromSchedule bool                    `json:"hide_from_schedule"`
	SectionName      string                  `json:"section_name"`
	AddedAt          time.Time               `json:"added_at"`
}

// ListMembers returns members of an organization with user and section details.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]Member, error) {
	const q = `SELECT m.id, m.user_id, u.email, COALESCE(u.full_name, ''), m.status, m.is_occasional, m.email_me, m.hide_from_schedule, s.name, m.created_at
		FROM memberships m
		INNER JOIN users u ON u.id = m.user_id
		INNER JOIN sections s ON s.id = m.default_section_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FullName, &m.Status, &m.IsOccasional, &m.EmailMe, &m.HideFromSchedule, &m.SectionName, &m.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
