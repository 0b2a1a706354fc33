package models

import (
	"time"

	"github.com/google/uuid"
)

// GigStatus is the booking state of a gig.
type GigStatus string

const (
	GigUnconfirmed GigStatus = "unconfirmed"
	GigConfirmed   GigStatus = "confirmed"
	GigCancelled   GigStatus = "cancelled"
	GigAsking      GigStatus = "asking"
)

// Gig is a schedulable event owned by an organization. Date is the call
// time and is required; SetDate and EndDate, when present, must not be
// earlier than Date.
type Gig struct {
	ID                uuid.UUID  `json:"id"`
	OrganizationID    uuid.UUID  `json:"organization_id"`
	Title             string     `json:"title"`
	Date              time.Time  `json:"date"`
	SetDate           *time.Time `json:"setdate,omitempty"`
	EndDate           *time.Time `json:"enddate,omitempty"`
	IsFullDay         bool       `json:"is_full_day"`
	DateNotes         string     `json:"datenotes"`
	Details           string     `json:"details"`
	Address           string     `json:"address"`
	Dress             string     `json:"dress"`
	PayDeal           string     `json:"paydeal"`
	Setlist           string     `json:"setlist"`
	PostGig           string     `json:"postgig"`
	Status            GigStatus  `json:"status"`
	IsPrivate         bool       `json:"is_private"`
	InviteOccasionals bool       `json:"invite_occasionals"`
	WasReminded       bool       `json:"was_reminded"`
	HideFromCalendar  bool       `json:"hide_from_calendar"`
	IsArchived        bool       `json:"is_archived"`
	TrashedAt         *time.Time `json:"trashed_at,omitempty"`
	ContactUserID     *uuid.UUID `json:"contact_user_id,omitempty"`
	CalFeedID         uuid.UUID  `json:"cal_feed_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// GigSnapshot is a stored copy of a gig's notification-relevant fields at
// save time. Only the two most recent snapshots per gig are retained; the
// change tracker always compares exactly those two.
type GigSnapshot struct {
	GigID       uuid.UUID  `json:"gig_id"`
	VersionSeq  int64      `json:"version_seq"`
	Status      GigStatus  `json:"status"`
	ContactName *string    `json:"contact_name,omitempty"`
	IsFullDay   bool       `json:"is_full_day"`
	Date        time.Time  `json:"date"`
	SetDate     *time.Time `json:"setdate,omitempty"`
	EndDate     *time.Time `json:"enddate,omitempty"`
	DateNotes   string     `json:"datenotes"`
	Address     string     `json:"address"`
	PostGig     string     `json:"postgig"`
	Details     string     `json:"details"`
	Dress       string     `json:"dress"`
	CreatedAt   time.Time  `json:"created_at"`
}
