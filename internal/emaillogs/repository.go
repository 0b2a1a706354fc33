package emaillogs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigboard/backend/internal/models"
)

// Repository handles email log and stats persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePending records a rendered notification before it is queued.
func (r *Repository) CreatePending(ctx context.Context, log *models.EmailLog) error {
	log.ID = uuid.New()
	log.Status = models.EmailLogStatusPending
	const q = `INSERT INTO email_logs (id, gig_id, plan_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, log.ID, log.GigID, log.PlanID, log.EmailType,
		log.RecipientEmail, log.Subject, log.Status).Scan(&log.CreatedAt)
}

// MarkSent records successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = $1, sent_at = NOW(), error_message = '' WHERE id = $2`,
		models.EmailLogStatusSent, id)
	return err
}

// MarkFailed records a delivery failure. The job is not retried.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = $1, error_message = $2 WHERE id = $3`,
		models.EmailLogStatusFailed, msg, id)
	return err
}

// ListByGig returns a gig's notification history, newest first.
func (r *Repository) ListByGig(ctx context.Context, gigID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, gig_id, plan_id, email_type, recipient_email, subject, status,
			sent_at, error_message, created_at
		FROM email_logs WHERE gig_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, gigID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.GigID, &l.PlanID, &l.EmailType, &l.RecipientEmail,
			&l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// IncrementStat bumps the organization's sent counter for the given day.
func (r *Repository) IncrementStat(ctx context.Context, orgID uuid.UUID, day time.Time) error {
	const q = `INSERT INTO email_stats (organization_id, day, sent_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (organization_id, day) DO UPDATE SET sent_count = email_stats.sent_count + 1`
	_, err := r.pool.Exec(ctx, q, orgID, day.UTC().Truncate(24*time.Hour))
	return err
}

// Stats returns the per-day sent counters for an organization, newest
// first, capped at the given number of days.
func (r *Repository) Stats(ctx context.Context, orgID uuid.UUID, days int) ([]models.EmailStat, error) {
	const q = `SELECT organization_id, day, sent_count FROM email_stats
		WHERE organization_id = $1 ORDER BY day DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, orgID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailStat
	for rows.Next() {
		var s models.EmailStat
		if err := rows.Scan(&s.OrganizationID, &s.Day, &s.SentCount); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
