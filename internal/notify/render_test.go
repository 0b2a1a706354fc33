package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/gigs"
	"github.com/gigboard/backend/internal/models"
)

func testGig() *models.Gig {
	return &models.Gig{
		ID:      uuid.New(),
		Title:   "Summer Fest",
		Date:    time.Date(2100, 7, 4, 19, 0, 0, 0, time.UTC),
		Address: "Main Square",
		Details: "Outdoor stage",
		Status:  models.GigConfirmed,
	}
}

func TestRenderer(t *testing.T) {
	rn := &Renderer{BaseURL: "https://gigs.example.com"}
	rec := Recipient{PlanID: uuid.New(), FullName: "Bob", Email: "bob@example.com"}

	t.Run("created mail lists series dates and answer link", func(t *testing.T) {
		dates := []time.Time{
			time.Date(2100, 7, 4, 19, 0, 0, 0, time.UTC),
			time.Date(2100, 8, 4, 19, 0, 0, 0, time.UTC),
		}
		msg := rn.GigCreated(testGig(), "The Brass Five", "UTC", dates, rec)
		if !strings.Contains(msg.Subject, "Summer Fest") {
			t.Fatalf("subject missing title: %q", msg.Subject)
		}
		if !strings.Contains(msg.Body, "This gig repeats on:") {
			t.Fatalf("body missing series list:\n%s", msg.Body)
		}
		if !strings.Contains(msg.Body, "/answer/"+rec.PlanID.String()) {
			t.Fatalf("body missing answer link:\n%s", msg.Body)
		}
	})

	t.Run("single gig omits the series list", func(t *testing.T) {
		msg := rn.GigCreated(testGig(), "The Brass Five", "UTC", nil, rec)
		if strings.Contains(msg.Body, "repeats on") {
			t.Fatalf("unexpected series list:\n%s", msg.Body)
		}
	})

	t.Run("edited mail shows old and new values", func(t *testing.T) {
		changes := []gigs.Change{
			{Field: "Status", NewValue: "Confirmed", OldValue: "Unconfirmed"},
			{Field: "Details", NewValue: gigs.SeeBelow},
		}
		msg := rn.GigEdited(testGig(), "The Brass Five", "UTC", changes, rec)
		if !strings.Contains(msg.Body, "Status: Confirmed (was Unconfirmed)") {
			t.Fatalf("missing status line:\n%s", msg.Body)
		}
		if !strings.Contains(msg.Body, "Details: "+gigs.SeeBelow) {
			t.Fatalf("missing see-below line:\n%s", msg.Body)
		}
		if !strings.Contains(msg.Body, "Current details:") {
			t.Fatalf("missing details block:\n%s", msg.Body)
		}
	})

	t.Run("recipient timezone shifts displayed times", func(t *testing.T) {
		shifted := rec
		shifted.Timezone = "America/New_York"
		msg := rn.Reminder(testGig(), "The Brass Five", "UTC", shifted)
		// 2100-07-04 19:00 UTC is still July 4 in New York.
		if !strings.Contains(msg.Body, "4 Jul 2100") {
			t.Fatalf("missing localized date:\n%s", msg.Body)
		}
	})

	t.Run("invalid recipient zone falls back to the organization's", func(t *testing.T) {
		bad := rec
		bad.Timezone = "Not/AZone"
		msg := rn.Reminder(testGig(), "The Brass Five", "UTC", bad)
		if !strings.Contains(msg.Body, "4 Jul 2100") {
			t.Fatalf("missing fallback date:\n%s", msg.Body)
		}
	})

	t.Run("watcher digest groups by gig", func(t *testing.T) {
		gigID := uuid.New()
		items := []WatchItem{
			{PlanID: uuid.New(), GigID: gigID, GigTitle: "Summer Fest", WatcherName: "Ann",
				MemberName: "Bob", PlanStatus: models.PlanDefinitely,
				GigDate: time.Date(2100, 7, 4, 19, 0, 0, 0, time.UTC)},
			{PlanID: uuid.New(), GigID: gigID, GigTitle: "Summer Fest", WatcherName: "Ann",
				MemberName: "Carol", PlanStatus: models.PlanCantDoIt,
				GigDate: time.Date(2100, 7, 4, 19, 0, 0, 0, time.UTC)},
		}
		msg := rn.WatcherAlert(items)
		if strings.Count(msg.Body, "Summer Fest") != 1 {
			t.Fatalf("expected one gig heading:\n%s", msg.Body)
		}
		if !strings.Contains(msg.Body, "Bob: ") || !strings.Contains(msg.Body, "Carol: ") {
			t.Fatalf("missing member lines:\n%s", msg.Body)
		}
	})
}

func TestLocalize(t *testing.T) {
	base := time.Date(2100, 1, 1, 0, 30, 0, 0, time.UTC)

	t.Run("recipient zone wins", func(t *testing.T) {
		got := localize(base, "America/New_York", "Europe/Berlin")
		if got.Day() != 31 || got.Month() != time.December {
			t.Fatalf("expected previous day in New York, got %v", got)
		}
	})

	t.Run("empty recipient zone falls back to org", func(t *testing.T) {
		got := localize(base, "", "Europe/Berlin")
		if got.Hour() != 1 {
			t.Fatalf("expected 01:30 in Berlin, got %v", got)
		}
	})

	t.Run("both invalid fall back to UTC", func(t *testing.T) {
		got := localize(base, "Nope", "AlsoNope")
		if !got.Equal(base) || got.Location() != time.UTC {
			t.Fatalf("expected UTC, got %v", got)
		}
	})
}
