package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigboard/backend/internal/models"
)

// Recipient is one audience member with everything needed to filter,
// render and address a message.
type Recipient struct {
	PlanID           uuid.UUID
	PlanStatus       models.PlanStatus
	MembershipStatus models.MembershipStatus
	EmailMe          bool
	IsOccasional     bool
	Email            string
	FullName         string
	Timezone         string
}

// SnoozeItem is one due snoozed plan joined with its gig and recipient.
type SnoozeItem struct {
	Recipient
	GigID          uuid.UUID
	GigTitle       string
	GigDate        time.Time
	OrganizationID uuid.UUID
	OrgTimezone    string
}

// WatchItem is one dirty plan on a watched gig, joined with the watcher.
type WatchItem struct {
	WatcherUserID  uuid.UUID
	WatcherEmail   string
	WatcherName    string
	WatcherTZ      string
	PlanID         uuid.UUID
	PlanStatus     models.PlanStatus
	MemberName     string
	GigID          uuid.UUID
	GigTitle       string
	GigDate        time.Time
	OrganizationID uuid.UUID
	OrgTimezone    string
}

// Repository holds the audience and batch-selection queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notify repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AudienceForGig returns every plan of a gig joined with membership
// flags and user contact details. Filtering happens in FilterAudience.
func (r *Repository) AudienceForGig(ctx context.Context, gigID uuid.UUID) ([]Recipient, error) {
	const q = `SELECT p.id, p.status, m.status, m.email_me, m.is_occasional,
			u.email, COALESCE(u.full_name, ''), u.timezone
		FROM plans p
		JOIN memberships m ON m.id = p.membership_id
		JOIN users u ON u.id = m.user_id
		WHERE p.gig_id = $1`
	rows, err := r.pool.Query(ctx, q, gigID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.PlanID, &rec.PlanStatus, &rec.MembershipStatus, &rec.EmailMe,
			&rec.IsOccasional, &rec.Email, &rec.FullName, &rec.Timezone); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// SnoozeDue selects plans whose snooze deadline falls before the cutoff
// and whose gig is still ahead. The caller clears the snoozes only after
// the whole selection has been processed.
func (r *Repository) SnoozeDue(ctx context.Context, cutoff time.Time) ([]SnoozeItem, error) {
	const q = `SELECT p.id, p.status, m.status, m.email_me, m.is_occasional,
			u.email, COALESCE(u.full_name, ''), u.timezone,
			g.id, g.title, g.date, o.id, o.timezone
		FROM plans p
		JOIN memberships m ON m.id = p.membership_id
		JOIN users u ON u.id = m.user_id
		JOIN gigs g ON g.id = p.gig_id
		JOIN organizations o ON o.id = g.organization_id
		WHERE p.snooze_until IS NOT NULL AND p.snooze_until <= $1 AND g.date > NOW()`
	rows, err := r.pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []SnoozeItem
	for rows.Next() {
		var it SnoozeItem
		if err := rows.Scan(&it.PlanID, &it.PlanStatus, &it.MembershipStatus, &it.EmailMe,
			&it.IsOccasional, &it.Email, &it.FullName, &it.Timezone,
			&it.GigID, &it.GigTitle, &it.GigDate, &it.OrganizationID, &it.OrgTimezone); err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// ClearSnooze unsets snooze_until on exactly the given plans.
func (r *Repository) ClearSnooze(ctx context.Context, planIDs []uuid.UUID) error {
	if len(planIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE plans SET snooze_until = NULL, updated_at = NOW() WHERE id = ANY($1)`, planIDs)
	return err
}

// DirtyWatchItems snapshots, at sweep start, every dirty plan on a
// watched gig together with its watcher. The sweep clears exactly the
// returned plan IDs, so a plan dirtied mid-sweep survives to the next one.
func (r *Repository) DirtyWatchItems(ctx context.Context) ([]WatchItem, error) {
	const q = `SELECT w.user_id, u.email, COALESCE(u.full_name, ''), u.timezone,
			p.id, p.status, COALESCE(mu.full_name, mu.email),
			g.id, g.title, g.date, o.id, o.timezone
		FROM gig_watchers w
		JOIN users u ON u.id = w.user_id
		JOIN plans p ON p.gig_id = w.gig_id AND p.status_changed
		JOIN memberships m ON m.id = p.membership_id
		JOIN users mu ON mu.id = m.user_id
		JOIN gigs g ON g.id = w.gig_id
		JOIN organizations o ON o.id = g.organization_id
		ORDER BY w.user_id, g.date`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []WatchItem
	for rows.Next() {
		var it WatchItem
		if err := rows.Scan(&it.WatcherUserID, &it.WatcherEmail, &it.WatcherName, &it.WatcherTZ,
			&it.PlanID, &it.PlanStatus, &it.MemberName,
			&it.GigID, &it.GigTitle, &it.GigDate, &it.OrganizationID, &it.OrgTimezone); err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// GigsNeedingReminder returns the live, unreminded gigs whose call time
// falls inside (from, to].
func (r *Repository) GigsNeedingReminder(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	const q = `SELECT id FROM gigs
		WHERE NOT was_reminded AND trashed_at IS NULL AND status <> 'cancelled'
			AND date > $1 AND date <= $2`
	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearDirty lowers the dirty bit on exactly the given plans.
func (r *Repository) ClearDirty(ctx context.Context, planIDs []uuid.UUID) error {
	if len(planIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE plans SET status_changed = FALSE, updated_at = NOW() WHERE id = ANY($1)`, planIDs)
	return err
}
