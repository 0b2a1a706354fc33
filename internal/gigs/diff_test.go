package gigs

import (
	"testing"
	"time"

	"github.com/gigboard/backend/internal/models"
)

func snap(mutate func(*models.GigSnapshot)) *models.GigSnapshot {
	name := "Alice"
	s := &models.GigSnapshot{
		Status:      models.GigUnconfirmed,
		ContactName: &name,
		Date:        time.Date(2100, 6, 12, 19, 0, 0, 0, time.UTC),
		DateNotes:   "doors 18:30",
		Address:     "12 Canal St",
		Details:     "two sets",
		Dress:       "black",
	}
	if mutate != nil {
		mutate(s)
	}
	return s
}

func TestDiff(t *testing.T) {
	t.Run("identical snapshots yield no changes", func(t *testing.T) {
		if got := Diff(snap(nil), snap(nil)); len(got) != 0 {
			t.Fatalf("expected no changes, got %v", got)
		}
	})

	t.Run("nil previous yields no changes", func(t *testing.T) {
		if got := Diff(snap(nil), nil); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("status change carries both labels", func(t *testing.T) {
		cur := snap(func(s *models.GigSnapshot) { s.Status = models.GigConfirmed })
		got := Diff(cur, snap(nil))
		if len(got) != 1 {
			t.Fatalf("expected 1 change, got %v", got)
		}
		if got[0].Field != "Status" || got[0].NewValue != "Confirmed" || got[0].OldValue != "Unconfirmed" {
			t.Fatalf("unexpected change: %+v", got[0])
		}
	})

	t.Run("missing contact shows as ??", func(t *testing.T) {
		cur := snap(func(s *models.GigSnapshot) { s.ContactName = nil })
		got := Diff(cur, snap(nil))
		if len(got) != 1 || got[0].Field != "Contact" {
			t.Fatalf("expected contact change, got %v", got)
		}
		if got[0].NewValue != "??" || got[0].OldValue != "Alice" {
			t.Fatalf("unexpected change: %+v", got[0])
		}
	})

	t.Run("schedule fields collapse into one entry", func(t *testing.T) {
		cur := snap(func(s *models.GigSnapshot) {
			s.Date = s.Date.Add(time.Hour)
			s.DateNotes = "doors moved"
			s.IsFullDay = true
		})
		got := Diff(cur, snap(nil))
		if len(got) != 1 {
			t.Fatalf("expected 1 collapsed change, got %v", got)
		}
		if got[0].Field != "Date/Time" || got[0].NewValue != SeeBelow {
			t.Fatalf("unexpected change: %+v", got[0])
		}
	})

	t.Run("set time appearing counts as a schedule change", func(t *testing.T) {
		set := time.Date(2100, 6, 12, 20, 0, 0, 0, time.UTC)
		cur := snap(func(s *models.GigSnapshot) { s.SetDate = &set })
		got := Diff(cur, snap(nil))
		if len(got) != 1 || got[0].Field != "Date/Time" {
			t.Fatalf("expected schedule change, got %v", got)
		}
	})

	t.Run("changes keep a fixed field order", func(t *testing.T) {
		cur := snap(func(s *models.GigSnapshot) {
			s.Dress = "white"
			s.Details = "three sets"
			s.Date = s.Date.Add(time.Hour)
			s.Status = models.GigCancelled
		})
		got := Diff(cur, snap(nil))
		want := []string{"Status", "Date/Time", "Details", "What To Wear"}
		if len(got) != len(want) {
			t.Fatalf("expected %d changes, got %v", len(want), got)
		}
		for i, field := range want {
			if got[i].Field != field {
				t.Fatalf("position %d: expected %s, got %s", i, field, got[i].Field)
			}
		}
	})

	t.Run("long text fields point at the details block", func(t *testing.T) {
		cur := snap(func(s *models.GigSnapshot) { s.Address = "9 Harbor Rd" })
		got := Diff(cur, snap(nil))
		if len(got) != 1 || got[0].NewValue != SeeBelow || got[0].OldValue != "" {
			t.Fatalf("expected see-below address change, got %v", got)
		}
	})
}
