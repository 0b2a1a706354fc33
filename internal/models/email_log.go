package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for notification automation.
const (
	EmailTypeGigCreated     = "gig_created"
	EmailTypeGigEdited      = "gig_edited"
	EmailTypeReminder       = "reminder"
	EmailTypeSnoozeReminder = "snooze_reminder"
	EmailTypeWatcherAlert   = "watcher_alert"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records one rendered notification and its delivery outcome.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	GigID          *uuid.UUID `json:"gig_id,omitempty"`
	PlanID         *uuid.UUID `json:"plan_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EmailStat is the per-organization sent counter, keyed by calendar day.
// Reporting only; never consulted for throttling.
type EmailStat struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Day            time.Time `json:"day"`
	SentCount      int       `json:"sent_count"`
}
