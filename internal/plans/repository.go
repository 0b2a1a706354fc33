package plans

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

// ErrSectionWrongOrganization is returned when a plan's section override
// is assigned across organization boundaries.
var ErrSectionWrongOrganization = errors.New("section does not belong to the plan's organization")

// Repository handles plan persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a plans repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const planColumns = `id, gig_id, membership_id, status, snooze_until, status_changed, comment,
	feedback_value, section_id, plan_section_id, created_at, updated_at`

func scanPlan(row pgx.Row, p *models.Plan) error {
	return row.Scan(&p.ID, &p.GigID, &p.MembershipID, &p.Status, &p.SnoozeUntil, &p.StatusChanged,
		&p.Comment, &p.FeedbackValue, &p.SectionID, &p.PlanSectionID, &p.CreatedAt, &p.UpdatedAt)
}

// EnsurePlans materializes the full plan roster for a gig: every
// membership of the gig's organization gets exactly one plan, created
// lazily here with status No Plan and the membership's default section.
// The (gig_id, membership_id) uniqueness constraint makes concurrent
// invocations collapse to no-ops, so repeated calls never duplicate.
func (r *Repository) EnsurePlans(ctx context.Context, gigID uuid.UUID) ([]models.Plan, error) {
	const insertMissing = `INSERT INTO plans (id, gig_id, membership_id, status, section_id)
		SELECT gen_random_uuid(), g.id, m.id, 0, m.default_section_id
		FROM gigs g
		JOIN memberships m ON m.organization_id = g.organization_id
		WHERE g.id = $1
		ON CONFLICT (gig_id, membership_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insertMissing, gigID); err != nil {
		return nil, fmt.Errorf("ensure plans: %w", err)
	}
	return r.ListByGig(ctx, gigID)
}

// ListByGig returns a gig's plans ordered by section display order, then
// creation.
func (r *Repository) ListByGig(ctx context.Context, gigID uuid.UUID) ([]models.Plan, error) {
	const q = `SELECT p.id, p.gig_id, p.membership_id, p.status, p.snooze_until, p.status_changed,
			p.comment, p.feedback_value, p.section_id, p.plan_section_id, p.created_at, p.updated_at
		FROM plans p
		JOIN sections s ON s.id = p.section_id
		WHERE p.gig_id = $1
		ORDER BY s.is_default DESC, s.display_order, p.created_at`
	rows, err := r.pool.Query(ctx, q, gigID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := scanPlan(rows, &p); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetByID returns a plan by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var p models.Plan
	err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id), &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GigDate returns the call time of the plan's gig, needed for the snooze
// computation.
func (r *Repository) GigDate(ctx context.Context, planID uuid.UUID) (gigID uuid.UUID, date time.Time, err error) {
	const q = `SELECT g.id, g.date FROM plans p JOIN gigs g ON g.id = p.gig_id WHERE p.id = $1`
	err = r.pool.QueryRow(ctx, q, planID).Scan(&gigID, &date)
	return gigID, date, err
}

// UpdateStatus persists a status change together with its computed
// snooze value. markChanged raises the watcher dirty bit; re-submitting
// an unchanged answer leaves the bit as it was.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlanStatus, snoozeUntil *time.Time, markChanged bool) error {
	const q = `UPDATE plans SET status = $1, snooze_until = $2, status_changed = status_changed OR $3, updated_at = NOW()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, int(status), snoozeUntil, markChanged, id)
	return err
}

// UpdateComment sets a plan's free-text comment.
func (r *Repository) UpdateComment(ctx context.Context, id uuid.UUID, comment string) error {
	_, err := r.pool.Exec(ctx, `UPDATE plans SET comment = $1, updated_at = NOW() WHERE id = $2`, comment, id)
	return err
}

// UpdateFeedback sets a plan's numeric feedback value.
func (r *Repository) UpdateFeedback(ctx context.Context, id uuid.UUID, value int) error {
	_, err := r.pool.Exec(ctx, `UPDATE plans SET feedback_value = $1, updated_at = NOW() WHERE id = $2`, value, id)
	return err
}

// SetSectionOverride sets or clears a plan's section override and
// re-resolves the effective section in the same statement: the override
// when present, the membership's default otherwise.
func (r *Repository) SetSectionOverride(ctx context.Context, id uuid.UUID, sectionID *uuid.UUID) error {
	if sectionID != nil {
		const check = `SELECT 1
			FROM plans p
			JOIN gigs g ON g.id = p.gig_id
			JOIN sections s ON s.id = $2
			WHERE p.id = $1 AND s.organization_id = g.organization_id`
		var one int
		if err := r.pool.QueryRow(ctx, check, id, *sectionID).Scan(&one); err != nil {
			if err == pgx.ErrNoRows {
				return ErrSectionWrongOrganization
			}
			return err
		}
	}
	const q = `UPDATE plans p SET plan_section_id = $1,
			section_id = COALESCE($1, (SELECT m.default_section_id FROM memberships m WHERE m.id = p.membership_id)),
			updated_at = NOW()
		WHERE p.id = $2`
	_, err := r.pool.Exec(ctx, q, sectionID, id)
	return err
}
