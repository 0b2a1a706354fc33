package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/models"
	"github.com/gigboard/backend/pkg/queue"
)

type memStore struct {
	snoozes       []SnoozeItem
	dirty         []WatchItem
	clearedSnooze [][]uuid.UUID
	clearedDirty  [][]uuid.UUID
}

func (m *memStore) AudienceForGig(_ context.Context, _ uuid.UUID) ([]Recipient, error) {
	return nil, nil
}

func (m *memStore) SnoozeDue(_ context.Context, _ time.Time) ([]SnoozeItem, error) {
	return append([]SnoozeItem(nil), m.snoozes...), nil
}

func (m *memStore) ClearSnooze(_ context.Context, planIDs []uuid.UUID) error {
	m.clearedSnooze = append(m.clearedSnooze, planIDs)
	m.snoozes = dropSnoozes(m.snoozes, planIDs)
	return nil
}

func (m *memStore) DirtyWatchItems(_ context.Context) ([]WatchItem, error) {
	return append([]WatchItem(nil), m.dirty...), nil
}

func (m *memStore) ClearDirty(_ context.Context, planIDs []uuid.UUID) error {
	m.clearedDirty = append(m.clearedDirty, planIDs)
	cleared := make(map[uuid.UUID]struct{}, len(planIDs))
	for _, id := range planIDs {
		cleared[id] = struct{}{}
	}
	var keep []WatchItem
	for _, it := range m.dirty {
		if _, ok := cleared[it.PlanID]; !ok {
			keep = append(keep, it)
		}
	}
	m.dirty = keep
	return nil
}

func (m *memStore) GigsNeedingReminder(_ context.Context, _, _ time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func dropSnoozes(items []SnoozeItem, planIDs []uuid.UUID) []SnoozeItem {
	cleared := make(map[uuid.UUID]struct{}, len(planIDs))
	for _, id := range planIDs {
		cleared[id] = struct{}{}
	}
	var keep []SnoozeItem
	for _, it := range items {
		if _, ok := cleared[it.PlanID]; !ok {
			keep = append(keep, it)
		}
	}
	return keep
}

type memLogs struct {
	logs     []models.EmailLog
	onCreate func()
}

func (m *memLogs) CreatePending(_ context.Context, log *models.EmailLog) error {
	log.ID = uuid.New()
	m.logs = append(m.logs, *log)
	if m.onCreate != nil {
		m.onCreate()
	}
	return nil
}

type memQueue struct {
	payloads []queue.NotificationPayload
}

func (m *memQueue) EnqueueNotification(_ context.Context, p queue.NotificationPayload) error {
	m.payloads = append(m.payloads, p)
	return nil
}

func newSweepEngine(store *memStore) (*Engine, *memLogs, *memQueue) {
	logs := &memLogs{}
	q := &memQueue{}
	return NewEngine(store, nil, nil, nil, logs, q, "https://gigboard.test", nil), logs, q
}

func snoozeItem(title string) SnoozeItem {
	return SnoozeItem{
		Recipient: Recipient{
			PlanID:   uuid.New(),
			Email:    "member@example.com",
			FullName: "Sam",
		},
		GigID:          uuid.New(),
		GigTitle:       title,
		GigDate:        time.Now().AddDate(0, 0, 5),
		OrganizationID: uuid.New(),
	}
}

func watchItem(watcher uuid.UUID, member, title string) WatchItem {
	return WatchItem{
		WatcherUserID:  watcher,
		WatcherEmail:   "watcher@example.com",
		WatcherName:    "Kim",
		PlanID:         uuid.New(),
		PlanStatus:     models.PlanDefinitely,
		MemberName:     member,
		GigID:          uuid.New(),
		GigTitle:       title,
		GigDate:        time.Now().AddDate(0, 0, 5),
		OrganizationID: uuid.New(),
	}
}

func TestSnoozeReminderSweep(t *testing.T) {
	now := time.Now()

	t.Run("a second sweep sends nothing", func(t *testing.T) {
		store := &memStore{snoozes: []SnoozeItem{snoozeItem("Club night"), snoozeItem("Festival")}}
		engine, _, q := newSweepEngine(store)

		n, err := engine.SnoozeReminderSweep(context.Background(), now)
		if err != nil {
			t.Fatalf("first sweep failed: %v", err)
		}
		if n != 2 || len(q.payloads) != 2 {
			t.Fatalf("expected 2 follow-ups, got n=%d payloads=%d", n, len(q.payloads))
		}

		n, err = engine.SnoozeReminderSweep(context.Background(), now)
		if err != nil {
			t.Fatalf("second sweep failed: %v", err)
		}
		if n != 0 || len(q.payloads) != 2 {
			t.Fatalf("second sweep must send nothing, got n=%d payloads=%d", n, len(q.payloads))
		}
	})

	t.Run("clear receives exactly the selected plans", func(t *testing.T) {
		a := snoozeItem("Club night")
		b := snoozeItem("Festival")
		store := &memStore{snoozes: []SnoozeItem{a, b}}
		engine, _, _ := newSweepEngine(store)

		if _, err := engine.SnoozeReminderSweep(context.Background(), now); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if len(store.clearedSnooze) != 1 {
			t.Fatalf("expected one clear call, got %d", len(store.clearedSnooze))
		}
		got := store.clearedSnooze[0]
		if len(got) != 2 || got[0] != a.PlanID || got[1] != b.PlanID {
			t.Fatalf("unexpected cleared set: %v", got)
		}
	})
}

func TestWatcherSweep(t *testing.T) {
	t.Run("one digest per watcher", func(t *testing.T) {
		kim := uuid.New()
		alex := uuid.New()
		store := &memStore{dirty: []WatchItem{
			watchItem(kim, "Robin", "Club night"),
			watchItem(kim, "Jo", "Festival"),
			watchItem(alex, "Robin", "Club night"),
		}}
		engine, logs, q := newSweepEngine(store)

		sent, err := engine.WatcherSweep(context.Background())
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if sent != 2 || len(q.payloads) != 2 || len(logs.logs) != 2 {
			t.Fatalf("expected 2 digests, got sent=%d payloads=%d logs=%d", sent, len(q.payloads), len(logs.logs))
		}
		if !strings.Contains(q.payloads[0].Body, "Robin") || !strings.Contains(q.payloads[0].Body, "Jo") {
			t.Fatalf("first digest must combine both changes, got %q", q.payloads[0].Body)
		}
	})

	t.Run("answers changed mid-sweep keep their bit", func(t *testing.T) {
		watcher := uuid.New()
		store := &memStore{dirty: []WatchItem{watchItem(watcher, "Robin", "Club night")}}
		engine, logs, q := newSweepEngine(store)

		late := watchItem(watcher, "Jo", "Festival")
		logs.onCreate = func() {
			store.dirty = append(store.dirty, late)
			logs.onCreate = nil
		}

		if _, err := engine.WatcherSweep(context.Background()); err != nil {
			t.Fatalf("first sweep failed: %v", err)
		}
		if len(store.clearedDirty) != 1 || len(store.clearedDirty[0]) != 1 {
			t.Fatalf("only the snapshotted plan may be cleared, got %v", store.clearedDirty)
		}
		if len(store.dirty) != 1 || store.dirty[0].PlanID != late.PlanID {
			t.Fatalf("mid-sweep change must survive, got %v", store.dirty)
		}

		sent, err := engine.WatcherSweep(context.Background())
		if err != nil {
			t.Fatalf("second sweep failed: %v", err)
		}
		if sent != 1 || len(q.payloads) != 2 {
			t.Fatalf("mid-sweep change must land in the next digest, got sent=%d payloads=%d", sent, len(q.payloads))
		}
		if !strings.Contains(q.payloads[1].Body, "Jo") {
			t.Fatalf("second digest must carry the late change, got %q", q.payloads[1].Body)
		}
	})

	t.Run("a plan watched twice clears once", func(t *testing.T) {
		shared := watchItem(uuid.New(), "Robin", "Club night")
		second := shared
		second.WatcherUserID = uuid.New()
		store := &memStore{dirty: []WatchItem{shared, second}}
		engine, _, _ := newSweepEngine(store)

		if _, err := engine.WatcherSweep(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if len(store.clearedDirty) != 1 || len(store.clearedDirty[0]) != 1 {
			t.Fatalf("expected one deduplicated clear, got %v", store.clearedDirty)
		}
		if store.clearedDirty[0][0] != shared.PlanID {
			t.Fatalf("unexpected cleared plan: %v", store.clearedDirty[0])
		}
	})

	t.Run("nothing dirty sends nothing", func(t *testing.T) {
		store := &memStore{}
		engine, _, q := newSweepEngine(store)
		sent, err := engine.WatcherSweep(context.Background())
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if sent != 0 || len(q.payloads) != 0 || len(store.clearedDirty) != 0 {
			t.Fatal("empty sweep must be a no-op")
		}
	})
}
