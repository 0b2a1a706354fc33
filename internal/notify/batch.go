package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigboard/backend/internal/models"
	"github.com/gigboard/backend/pkg/queue"
)

// snoozeLookahead makes the sweep catch snoozes that would come due
// before the next run.
const snoozeLookahead = 24 * time.Hour

// SnoozeReminderSweep selects every plan whose snooze has run out while
// its gig is still ahead, queues one follow-up each, and clears exactly
// the selected snoozes afterwards. Clearing after the whole selection
// means a crash mid-sweep re-selects the remainder next time rather than
// losing it.
func (e *Engine) SnoozeReminderSweep(ctx context.Context, now time.Time) (int, error) {
	items, err := e.repo.SnoozeDue(ctx, now.Add(snoozeLookahead))
	if err != nil {
		return 0, fmt.Errorf("select due snoozes: %w", err)
	}
	processed := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		msg := e.render.SnoozeReminder(it)
		e.dispatch(ctx, it.OrganizationID, &it.GigID, it.PlanID, models.EmailTypeSnoozeReminder, it.Email, msg)
		processed = append(processed, it.PlanID)
	}
	if err := e.repo.ClearSnooze(ctx, processed); err != nil {
		return len(processed), fmt.Errorf("clear snoozes: %w", err)
	}
	return len(processed), nil
}

// WatcherSweep snapshots the dirty plans on watched gigs, sends each
// watcher one combined digest, and clears only the snapshotted dirty
// bits. Answers changed while the sweep runs keep their bit and land in
// the next digest.
func (e *Engine) WatcherSweep(ctx context.Context) (int, error) {
	items, err := e.repo.DirtyWatchItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("select dirty plans: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	byWatcher := make(map[uuid.UUID][]WatchItem)
	var order []uuid.UUID
	for _, it := range items {
		if _, seen := byWatcher[it.WatcherUserID]; !seen {
			order = append(order, it.WatcherUserID)
		}
		byWatcher[it.WatcherUserID] = append(byWatcher[it.WatcherUserID], it)
	}

	sent := 0
	for _, watcherID := range order {
		group := byWatcher[watcherID]
		msg := e.render.WatcherAlert(group)
		first := group[0]
		log := &models.EmailLog{
			GigID:          &first.GigID,
			EmailType:      models.EmailTypeWatcherAlert,
			RecipientEmail: first.WatcherEmail,
			Subject:        msg.Subject,
		}
		if err := e.logs.CreatePending(ctx, log); err != nil {
			e.logger.Error("email log failed", zap.Error(err), zap.String("recipient", first.WatcherEmail))
			continue
		}
		payload := queue.NotificationPayload{
			EmailLogID:     log.ID,
			OrganizationID: first.OrganizationID,
			GigID:          first.GigID,
			EmailType:      models.EmailTypeWatcherAlert,
			RecipientEmail: first.WatcherEmail,
			Subject:        msg.Subject,
			Body:           msg.Body,
		}
		if err := e.queue.EnqueueNotification(ctx, payload); err != nil {
			e.logger.Error("enqueue failed", zap.Error(err), zap.String("email_log_id", log.ID.String()))
			continue
		}
		sent++
	}

	seen := make(map[uuid.UUID]struct{}, len(items))
	planIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.PlanID]; dup {
			continue
		}
		seen[it.PlanID] = struct{}{}
		planIDs = append(planIDs, it.PlanID)
	}
	if err := e.repo.ClearDirty(ctx, planIDs); err != nil {
		return sent, fmt.Errorf("clear dirty plans: %w", err)
	}
	return sent, nil
}

// ReminderSweep nudges every unreminded upcoming gig whose call time is
// inside the window. Each gig is marked reminded on the way out, so the
// nudge is sent once.
func (e *Engine) ReminderSweep(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	ids, err := e.repo.GigsNeedingReminder(ctx, now, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("select gigs to remind: %w", err)
	}

	sent := 0
	for _, id := range ids {
		if err := e.SendReminder(ctx, id); err != nil {
			e.logger.Error("reminder failed", zap.Error(err), zap.String("gig_id", id.String()))
			continue
		}
		sent++
	}
	return sent, nil
}
