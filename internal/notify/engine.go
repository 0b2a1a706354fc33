package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigboard/backend/internal/gigs"
	"github.com/gigboard/backend/internal/models"
	"github.com/gigboard/backend/pkg/queue"
)

// Enqueuer hands rendered messages to the delivery worker.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error
}

// Store is the audience and batch-selection surface the engine reads
// and clears. *Repository is the production implementation.
type Store interface {
	AudienceForGig(ctx context.Context, gigID uuid.UUID) ([]Recipient, error)
	SnoozeDue(ctx context.Context, cutoff time.Time) ([]SnoozeItem, error)
	ClearSnooze(ctx context.Context, planIDs []uuid.UUID) error
	DirtyWatchItems(ctx context.Context) ([]WatchItem, error)
	ClearDirty(ctx context.Context, planIDs []uuid.UUID) error
	GigsNeedingReminder(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
}

// GigStore is what the engine needs from the gigs repository.
type GigStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	LatestSnapshots(ctx context.Context, gigID uuid.UUID) (current, previous *models.GigSnapshot, err error)
	SetWasReminded(ctx context.Context, id uuid.UUID) error
}

// OrgStore resolves an organization for rendering.
type OrgStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// LogStore records one pending email log per outgoing message.
type LogStore interface {
	CreatePending(ctx context.Context, log *models.EmailLog) error
}

// FilterAudience applies the membership gate: only confirmed members who
// want mail, and occasionals only when the gig invites them. With
// undecidedOnly, the set narrows further to members who have not
// committed either way yet.
func FilterAudience(list []Recipient, inviteOccasionals, undecidedOnly bool) []Recipient {
	var out []Recipient
	for _, rec := range list {
		if rec.MembershipStatus != models.MembershipConfirmed || !rec.EmailMe {
			continue
		}
		if rec.IsOccasional && !inviteOccasionals {
			continue
		}
		if undecidedOnly && rec.PlanStatus != models.PlanNoPlan && rec.PlanStatus != models.PlanDontKnow {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Engine fans gig events out to their audience. Messages are rendered
// and logged here, then queued; delivery happens in the worker.
type Engine struct {
	repo     Store
	gigRepo  GigStore
	planRepo gigs.PlanSyncer
	orgRepo  OrgStore
	logs     LogStore
	queue    Enqueuer
	render   Renderer
	logger   *zap.Logger
}

// NewEngine creates a notification engine.
func NewEngine(repo Store, gigRepo GigStore, planRepo gigs.PlanSyncer,
	orgRepo OrgStore, logs LogStore, q Enqueuer,
	baseURL string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		repo:     repo,
		gigRepo:  gigRepo,
		planRepo: planRepo,
		orgRepo:  orgRepo,
		logs:     logs,
		queue:    q,
		render:   Renderer{BaseURL: baseURL},
		logger:   logger,
	}
}

// Notify fans out a created or edited event for a gig. For edits the two
// newest snapshots are diffed; an edit that changed nothing tracked is
// silently dropped. One recipient failing to log or queue never blocks
// the rest.
func (e *Engine) Notify(ctx context.Context, gigID uuid.UUID, kind string, dates []time.Time) error {
	g, err := e.gigRepo.GetByID(ctx, gigID)
	if err != nil {
		return fmt.Errorf("load gig: %w", err)
	}
	org, err := e.orgRepo.GetByID(ctx, g.OrganizationID)
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}

	var changes []gigs.Change
	if kind == gigs.EventEdited {
		current, previous, err := e.gigRepo.LatestSnapshots(ctx, gigID)
		if err != nil {
			return fmt.Errorf("load snapshots: %w", err)
		}
		changes = gigs.Diff(current, previous)
		if len(changes) == 0 {
			return nil
		}
	}

	if _, err := e.planRepo.EnsurePlans(ctx, gigID); err != nil {
		return fmt.Errorf("ensure plans: %w", err)
	}
	audience, err := e.repo.AudienceForGig(ctx, gigID)
	if err != nil {
		return fmt.Errorf("load audience: %w", err)
	}

	emailType := models.EmailTypeGigCreated
	for _, rec := range FilterAudience(audience, g.InviteOccasionals, false) {
		var msg Message
		if kind == gigs.EventEdited {
			emailType = models.EmailTypeGigEdited
			msg = e.render.GigEdited(g, org.Name, org.Timezone, changes, rec)
		} else {
			msg = e.render.GigCreated(g, org.Name, org.Timezone, dates, rec)
		}
		e.dispatch(ctx, g.OrganizationID, &gigID, rec.PlanID, emailType, rec.Email, msg)
	}
	return nil
}

// SendReminder mails every confirmed member who has not answered yet and
// marks the gig reminded so the nudge goes out at most once.
func (e *Engine) SendReminder(ctx context.Context, gigID uuid.UUID) error {
	g, err := e.gigRepo.GetByID(ctx, gigID)
	if err != nil {
		return fmt.Errorf("load gig: %w", err)
	}
	org, err := e.orgRepo.GetByID(ctx, g.OrganizationID)
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}
	if _, err := e.planRepo.EnsurePlans(ctx, gigID); err != nil {
		return fmt.Errorf("ensure plans: %w", err)
	}
	audience, err := e.repo.AudienceForGig(ctx, gigID)
	if err != nil {
		return fmt.Errorf("load audience: %w", err)
	}
	for _, rec := range FilterAudience(audience, g.InviteOccasionals, true) {
		msg := e.render.Reminder(g, org.Name, org.Timezone, rec)
		e.dispatch(ctx, g.OrganizationID, &gigID, rec.PlanID, models.EmailTypeReminder, rec.Email, msg)
	}
	if err := e.gigRepo.SetWasReminded(ctx, gigID); err != nil {
		e.logger.Warn("mark reminded failed", zap.Error(err), zap.String("gig_id", gigID.String()))
	}
	return nil
}

// dispatch logs one pending message and queues it for delivery.
func (e *Engine) dispatch(ctx context.Context, orgID uuid.UUID, gigID *uuid.UUID, planID uuid.UUID,
	emailType, email string, msg Message) {
	log := &models.EmailLog{
		GigID:          gigID,
		PlanID:         &planID,
		EmailType:      emailType,
		RecipientEmail: email,
		Subject:        msg.Subject,
	}
	if err := e.logs.CreatePending(ctx, log); err != nil {
		e.logger.Error("email log failed", zap.Error(err), zap.String("recipient", email))
		return
	}
	payload := queue.NotificationPayload{
		EmailLogID:     log.ID,
		OrganizationID: orgID,
		EmailType:      emailType,
		RecipientEmail: email,
		Subject:        msg.Subject,
		Body:           msg.Body,
	}
	if gigID != nil {
		payload.GigID = *gigID
	}
	if err := e.queue.EnqueueNotification(ctx, payload); err != nil {
		e.logger.Error("enqueue failed", zap.Error(err), zap.String("email_log_id", log.ID.String()))
	}
}
