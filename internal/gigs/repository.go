package gigs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigboard/backend/internal/models"
)

// Repository handles gig, snapshot and watcher persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a gigs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const gigColumns = `id, organization_id, title, date, setdate, enddate, is_full_day, datenotes,
	details, address, dress, paydeal, setlist, postgig, status, is_private, invite_occasionals,
	was_reminded, hide_from_calendar, is_archived, trashed_at, contact_user_id, cal_feed_id,
	created_at, updated_at`

func scanGig(row pgx.Row, g *models.Gig) error {
	return row.Scan(&g.ID, &g.OrganizationID, &g.Title, &g.Date, &g.SetDate, &g.EndDate, &g.IsFullDay,
		&g.DateNotes, &g.Details, &g.Address, &g.Dress, &g.PayDeal, &g.Setlist, &g.PostGig, &g.Status,
		&g.IsPrivate, &g.InviteOccasionals, &g.WasReminded, &g.HideFromCalendar, &g.IsArchived,
		&g.TrashedAt, &g.ContactUserID, &g.CalFeedID, &g.CreatedAt, &g.UpdatedAt)
}

// Create inserts a new gig. A fresh calendar-feed ID is generated server
// side for every row, recurrence clones included.
func (r *Repository) Create(ctx context.Context, g *models.Gig) error {
	const q = `INSERT INTO gigs (id, organization_id, title, date, setdate, enddate, is_full_day, datenotes,
			details, address, dress, paydeal, setlist, postgig, status, is_private, invite_occasionals,
			hide_from_calendar, contact_user_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, was_reminded, is_archived, cal_feed_id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, g.OrganizationID, g.Title, g.Date, g.SetDate, g.EndDate, g.IsFullDay,
		g.DateNotes, g.Details, g.Address, g.Dress, g.PayDeal, g.Setlist, g.PostGig, string(g.Status),
		g.IsPrivate, g.InviteOccasionals, g.HideFromCalendar, g.ContactUserID).
		Scan(&g.ID, &g.WasReminded, &g.IsArchived, &g.CalFeedID, &g.CreatedAt, &g.UpdatedAt)
}

// GetByID returns a gig by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var g models.Gig
	err := scanGig(r.pool.QueryRow(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = $1`, id), &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByOrganization returns an organization's gigs, soonest first.
// Trashed gigs are excluded.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Gig, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+gigColumns+` FROM gigs
		WHERE organization_id = $1 AND trashed_at IS NULL ORDER BY date ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Gig
	for rows.Next() {
		var g models.Gig
		if err := scanGig(rows, &g); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// Update persists all editable gig fields.
func (r *Repository) Update(ctx context.Context, g *models.Gig) error {
	const q = `UPDATE gigs SET title = $1, date = $2, setdate = $3, enddate = $4, is_full_day = $5,
			datenotes = $6, details = $7, address = $8, dress = $9, paydeal = $10, setlist = $11,
			postgig = $12, status = $13, is_private = $14, invite_occasionals = $15,
			hide_from_calendar = $16, is_archived = $17, contact_user_id = $18, updated_at = NOW()
		WHERE id = $19
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, g.Title, g.Date, g.SetDate, g.EndDate, g.IsFullDay, g.DateNotes,
		g.Details, g.Address, g.Dress, g.PayDeal, g.Setlist, g.PostGig, string(g.Status), g.IsPrivate,
		g.InviteOccasionals, g.HideFromCalendar, g.IsArchived, g.ContactUserID, g.ID).Scan(&g.UpdatedAt)
}

// Trash soft-deletes a gig.
func (r *Repository) Trash(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE gigs SET trashed_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// SetWasReminded marks a gig so the reminder is sent at most once.
func (r *Repository) SetWasReminded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE gigs SET was_reminded = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// InsertSnapshot appends a snapshot of the gig's diff-relevant fields and
// prunes the history to the two most recent versions. The change tracker
// only ever reads those two slots.
func (r *Repository) InsertSnapshot(ctx context.Context, g *models.Gig, contactName *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `INSERT INTO gig_snapshots (gig_id, version_seq, status, contact_name, is_full_day,
			date, setdate, enddate, datenotes, address, postgig, details, dress)
		SELECT $1, COALESCE(MAX(version_seq), 0) + 1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		FROM gig_snapshots WHERE gig_id = $1`
	if _, err := tx.Exec(ctx, insert, g.ID, string(g.Status), contactName, g.IsFullDay,
		g.Date, g.SetDate, g.EndDate, g.DateNotes, g.Address, g.PostGig, g.Details, g.Dress); err != nil {
		return err
	}

	const prune = `DELETE FROM gig_snapshots WHERE gig_id = $1 AND version_seq <= (
			SELECT MAX(version_seq) - 2 FROM gig_snapshots WHERE gig_id = $1)`
	if _, err := tx.Exec(ctx, prune, g.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LatestSnapshots returns the current and previous snapshot of a gig.
// previous is nil after the first save.
func (r *Repository) LatestSnapshots(ctx context.Context, gigID uuid.UUID) (current, previous *models.GigSnapshot, err error) {
	const q = `SELECT gig_id, version_seq, status, contact_name, is_full_day, date, setdate, enddate,
			datenotes, address, postgig, details, dress, created_at
		FROM gig_snapshots WHERE gig_id = $1 ORDER BY version_seq DESC LIMIT 2`
	rows, err := r.pool.Query(ctx, q, gigID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var snaps []*models.GigSnapshot
	for rows.Next() {
		var s models.GigSnapshot
		if err := rows.Scan(&s.GigID, &s.VersionSeq, &s.Status, &s.ContactName, &s.IsFullDay, &s.Date,
			&s.SetDate, &s.EndDate, &s.DateNotes, &s.Address, &s.PostGig, &s.Details, &s.Dress, &s.CreatedAt); err != nil {
			return nil, nil, err
		}
		snaps = append(snaps, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	switch len(snaps) {
	case 0:
		return nil, nil, nil
	case 1:
		return snaps[0], nil, nil
	default:
		return snaps[0], snaps[1], nil
	}
}

// ContactName returns the display name of a gig's contact user, or nil
// when no contact is set.
func (r *Repository) ContactName(ctx context.Context, contactUserID *uuid.UUID) (*string, error) {
	if contactUserID == nil {
		return nil, nil
	}
	var name string
	err := r.pool.QueryRow(ctx, `SELECT full_name FROM users WHERE id = $1`, *contactUserID).Scan(&name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &name, nil
}

// AddWatcher subscribes a user to a gig's plan-change alerts.
func (r *Repository) AddWatcher(ctx context.Context, gigID, userID uuid.UUID) error {
	const q = `INSERT INTO gig_watchers (gig_id, user_id) VALUES ($1, $2)
		ON CONFLICT (gig_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, gigID, userID)
	return err
}

// RemoveWatcher unsubscribes a user from a gig.
func (r *Repository) RemoveWatcher(ctx context.Context, gigID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM gig_watchers WHERE gig_id = $1 AND user_id = $2`, gigID, userID)
	return err
}
