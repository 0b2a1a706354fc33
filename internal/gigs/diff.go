package gigs

import (
	"time"

	"github.com/gigboard/backend/internal/models"
)

// SeeBelow marks a change whose new value is rendered as a full block in
// the notification body instead of an old/new pair.
const SeeBelow = "(See below.)"

// Change is one entry in a gig's change summary.
type Change struct {
	Field    string `json:"field"`
	NewValue string `json:"new_value"`
	OldValue string `json:"old_value,omitempty"`
}

// Diff compares the two most recent snapshots of a gig and returns the
// changed fields in a fixed order. The date/time fields (is_full_day,
// date, setdate, enddate, datenotes) collapse into a single entry because
// the notification always renders the complete schedule block. Returns
// nil when previous is nil (first save).
func Diff(current, previous *models.GigSnapshot) []Change {
	if current == nil || previous == nil {
		return nil
	}

	var changes []Change

	if current.Status != previous.Status {
		changes = append(changes, Change{
			Field:    "Status",
			NewValue: statusLabel(current.Status),
			OldValue: statusLabel(previous.Status),
		})
	}

	if contactDisplay(current.ContactName) != contactDisplay(previous.ContactName) {
		changes = append(changes, Change{
			Field:    "Contact",
			NewValue: contactDisplay(current.ContactName),
			OldValue: contactDisplay(previous.ContactName),
		})
	}

	if scheduleChanged(current, previous) {
		changes = append(changes, Change{Field: "Date/Time", NewValue: SeeBelow})
	}
	if current.Address != previous.Address {
		changes = append(changes, Change{Field: "Address", NewValue: SeeBelow})
	}
	if current.PostGig != previous.PostGig {
		changes = append(changes, Change{Field: "Post-gig Plans", NewValue: SeeBelow})
	}
	if current.Details != previous.Details {
		changes = append(changes, Change{Field: "Details", NewValue: SeeBelow})
	}
	if current.Dress != previous.Dress {
		changes = append(changes, Change{Field: "What To Wear", NewValue: SeeBelow})
	}

	return changes
}

func scheduleChanged(a, b *models.GigSnapshot) bool {
	return a.IsFullDay != b.IsFullDay ||
		!a.Date.Equal(b.Date) ||
		!timePtrEqual(a.SetDate, b.SetDate) ||
		!timePtrEqual(a.EndDate, b.EndDate) ||
		a.DateNotes != b.DateNotes
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func contactDisplay(name *string) string {
	if name == nil || *name == "" {
		return "??"
	}
	return *name
}

func statusLabel(s models.GigStatus) string {
	switch s {
	case models.GigUnconfirmed:
		return "Unconfirmed"
	case models.GigConfirmed:
		return "Confirmed"
	case models.GigCancelled:
		return "Cancelled"
	case models.GigAsking:
		return "Asking"
	}
	return string(s)
}
