package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/gigboard/backend/internal/emaillogs"
	"github.com/gigboard/backend/pkg/mailer"
	"github.com/gigboard/backend/pkg/queue"
)

// NotificationProcessor drains the notification queue and delivers mail.
// Delivery is at-most-once: a failed send is recorded on the log entry
// and never retried.
type NotificationProcessor struct {
	queue  *queue.Queue
	sender mailer.Sender
	logs   *emaillogs.Repository
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification processor.
func NewNotificationProcessor(q *queue.Queue, sender mailer.Sender, logs *emaillogs.Repository, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{queue: q, sender: sender, logs: logs, logger: logger}
}

// Run blocks on the queue until ctx is cancelled.
func (p *NotificationProcessor) Run(ctx context.Context) {
	p.logger.Info("notification processor started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification processor stopping")
			return
		default:
		}
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		p.process(ctx, job)
	}
}

func (p *NotificationProcessor) process(ctx context.Context, job *queue.Job) {
	if job.Type != queue.JobTypeNotification {
		p.logger.Warn("unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
		return
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("invalid notification payload", zap.Error(err), zap.String("job_id", job.ID))
		return
	}

	if err := p.sender.Send(payload.RecipientEmail, payload.Subject, payload.Body); err != nil {
		p.logger.Error("send failed",
			zap.Error(err),
			zap.String("recipient", payload.RecipientEmail),
			zap.String("email_type", payload.EmailType))
		if markErr := p.logs.MarkFailed(ctx, payload.EmailLogID, err.Error()); markErr != nil {
			p.logger.Error("mark failed errored", zap.Error(markErr), zap.String("email_log_id", payload.EmailLogID.String()))
		}
		return
	}

	if err := p.logs.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Error("mark sent errored", zap.Error(err), zap.String("email_log_id", payload.EmailLogID.String()))
	}
	if err := p.logs.IncrementStat(ctx, payload.OrganizationID, time.Now()); err != nil {
		p.logger.Warn("stat increment failed", zap.Error(err), zap.String("organization_id", payload.OrganizationID.String()))
	}
	p.logger.Info("notification delivered",
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail))
}
