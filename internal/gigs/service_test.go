package gigs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/models"
)

type fakeStore struct {
	created     []models.Gig
	updated     int
	contactName *string
	contactErr  error
	snapshots   []*string
}

func (f *fakeStore) Create(_ context.Context, g *models.Gig) error {
	g.ID = uuid.New()
	g.CalFeedID = uuid.New()
	f.created = append(f.created, *g)
	return nil
}

func (f *fakeStore) Update(_ context.Context, g *models.Gig) error {
	f.updated++
	return nil
}

func (f *fakeStore) ContactName(_ context.Context, _ *uuid.UUID) (*string, error) {
	return f.contactName, f.contactErr
}

func (f *fakeStore) InsertSnapshot(_ context.Context, _ *models.Gig, contactName *string) error {
	f.snapshots = append(f.snapshots, contactName)
	return nil
}

type fakeSyncer struct {
	gigIDs []uuid.UUID
}

func (f *fakeSyncer) EnsurePlans(_ context.Context, gigID uuid.UUID) ([]models.Plan, error) {
	f.gigIDs = append(f.gigIDs, gigID)
	return nil, nil
}

type notifyCall struct {
	gigID               uuid.UUID
	kind                string
	dates               []time.Time
	gigsPersistedAtCall int
}

type fakeNotifier struct {
	store *fakeStore
	calls []notifyCall
}

func (f *fakeNotifier) Notify(_ context.Context, gigID uuid.UUID, kind string, dates []time.Time) error {
	call := notifyCall{gigID: gigID, kind: kind, dates: dates}
	if f.store != nil {
		call.gigsPersistedAtCall = len(f.store.created)
	}
	f.calls = append(f.calls, call)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeSyncer, *fakeNotifier) {
	store := &fakeStore{}
	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{store: store}
	return NewService(store, syncer, notifier, nil), store, syncer, notifier
}

func TestValidate(t *testing.T) {
	now := time.Date(2100, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 14)

	t.Run("date is required", func(t *testing.T) {
		err := Validate(&models.Gig{Title: "No date"}, true, now)
		if !errors.Is(err, ErrDateRequired) {
			t.Fatalf("expected ErrDateRequired, got %v", err)
		}
	})

	t.Run("new gigs reject past dates", func(t *testing.T) {
		g := &models.Gig{Date: now.AddDate(0, 0, -1)}
		if err := Validate(g, true, now); !errors.Is(err, ErrDateInPast) {
			t.Fatalf("expected ErrDateInPast, got %v", err)
		}
	})

	t.Run("edits may keep past dates", func(t *testing.T) {
		g := &models.Gig{Date: now.AddDate(0, 0, -1)}
		if err := Validate(g, false, now); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("set time before call time is rejected", func(t *testing.T) {
		set := future.Add(-time.Hour)
		g := &models.Gig{Date: future, SetDate: &set}
		if err := Validate(g, true, now); !errors.Is(err, ErrSetDateBeforeDate) {
			t.Fatalf("expected ErrSetDateBeforeDate, got %v", err)
		}
	})

	t.Run("end time before call time is rejected", func(t *testing.T) {
		end := future.Add(-time.Minute)
		g := &models.Gig{Date: future, EndDate: &end}
		if err := Validate(g, true, now); !errors.Is(err, ErrEndDateBeforeDate) {
			t.Fatalf("expected ErrEndDateBeforeDate, got %v", err)
		}
	})

	t.Run("valid gig passes", func(t *testing.T) {
		set := future.Add(time.Hour)
		end := future.Add(4 * time.Hour)
		g := &models.Gig{Date: future, SetDate: &set, EndDate: &end}
		if err := Validate(g, true, now); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})
}

func TestSave(t *testing.T) {
	future := time.Now().AddDate(0, 0, 14)

	t.Run("snapshot is written even when the contact lookup fails", func(t *testing.T) {
		svc, store, _, notifier := newTestService()
		store.contactErr = errors.New("user gone")
		contactID := uuid.New()
		g := &models.Gig{Title: "Club night", Date: future, ContactUserID: &contactID}
		if err := svc.Save(context.Background(), g, true); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if len(store.snapshots) != 1 {
			t.Fatalf("expected 1 snapshot, got %d", len(store.snapshots))
		}
		if store.snapshots[0] != nil {
			t.Fatalf("expected snapshot with no contact name, got %q", *store.snapshots[0])
		}
		if len(notifier.calls) != 1 || notifier.calls[0].kind != EventCreated {
			t.Fatalf("unexpected notifications: %+v", notifier.calls)
		}
	})

	t.Run("edit notifies with the edited kind", func(t *testing.T) {
		svc, store, _, notifier := newTestService()
		g := &models.Gig{ID: uuid.New(), Title: "Club night", Date: future}
		if err := svc.Save(context.Background(), g, false); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if store.updated != 1 {
			t.Fatalf("expected 1 update, got %d", store.updated)
		}
		if len(notifier.calls) != 1 || notifier.calls[0].kind != EventEdited {
			t.Fatalf("unexpected notifications: %+v", notifier.calls)
		}
	})

	t.Run("plan sync runs on every save", func(t *testing.T) {
		svc, _, syncer, _ := newTestService()
		g := &models.Gig{Title: "Club night", Date: future}
		if err := svc.Save(context.Background(), g, true); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if len(syncer.gigIDs) != 1 || syncer.gigIDs[0] != g.ID {
			t.Fatalf("expected plan sync for %v, got %v", g.ID, syncer.gigIDs)
		}
	})
}

func TestSaveSeries(t *testing.T) {
	seedDate := time.Now().AddDate(0, 0, 14).Truncate(time.Hour)

	t.Run("single notification goes out after every instance is persisted", func(t *testing.T) {
		svc, store, _, notifier := newTestService()
		seed := &models.Gig{Title: "Residency", Date: seedDate}
		dates, err := svc.SaveSeries(context.Background(), seed, 3, PeriodWeek)
		if err != nil {
			t.Fatalf("save series failed: %v", err)
		}
		if len(store.created) != 3 {
			t.Fatalf("expected 3 persisted gigs, got %d", len(store.created))
		}
		if len(notifier.calls) != 1 {
			t.Fatalf("expected exactly 1 notification, got %d", len(notifier.calls))
		}
		call := notifier.calls[0]
		if call.gigsPersistedAtCall != 3 {
			t.Fatalf("notification sent after %d of 3 instances", call.gigsPersistedAtCall)
		}
		if call.kind != EventCreated || call.gigID != seed.ID {
			t.Fatalf("unexpected notification: %+v", call)
		}
		if len(call.dates) != 3 || len(dates) != 3 {
			t.Fatalf("expected 3 dates, got %v / %v", call.dates, dates)
		}
	})

	t.Run("clones shift dates and keep set/end offsets", func(t *testing.T) {
		svc, store, _, _ := newTestService()
		set := seedDate.Add(time.Hour)
		seed := &models.Gig{Title: "Residency", Date: seedDate, SetDate: &set}
		if _, err := svc.SaveSeries(context.Background(), seed, 2, PeriodWeek); err != nil {
			t.Fatalf("save series failed: %v", err)
		}
		clone := store.created[1]
		if !clone.Date.Equal(seedDate.AddDate(0, 0, 7)) {
			t.Fatalf("unexpected clone date: %v", clone.Date)
		}
		if clone.SetDate == nil || !clone.SetDate.Equal(clone.Date.Add(time.Hour)) {
			t.Fatalf("unexpected clone set time: %v", clone.SetDate)
		}
		if clone.ID == seed.ID || clone.CalFeedID == seed.CalFeedID {
			t.Fatal("clone must not share the seed's IDs")
		}
	})

	t.Run("seed in the past rejects the whole series", func(t *testing.T) {
		svc, store, _, notifier := newTestService()
		seed := &models.Gig{Title: "Residency", Date: time.Now().AddDate(0, 0, -1)}
		if _, err := svc.SaveSeries(context.Background(), seed, 3, PeriodWeek); !errors.Is(err, ErrDateInPast) {
			t.Fatalf("expected ErrDateInPast, got %v", err)
		}
		if len(store.created) != 0 || len(notifier.calls) != 0 {
			t.Fatal("nothing may be persisted or sent for an invalid seed")
		}
	})
}
