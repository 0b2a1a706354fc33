package gigs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigboard/backend/internal/models"
)

// Validation errors, surfaced before any persistence.
var (
	ErrDateRequired      = errors.New("gig date is required")
	ErrDateInPast        = errors.New("gig date must not be in the past")
	ErrSetDateBeforeDate = errors.New("set time must not be earlier than the call time")
	ErrEndDateBeforeDate = errors.New("end time must not be earlier than the call time")
)

// Event kinds passed to the notifier.
const (
	EventCreated = "created"
	EventEdited  = "edited"
)

// Store is the persistence surface the gig write path uses.
type Store interface {
	Create(ctx context.Context, g *models.Gig) error
	Update(ctx context.Context, g *models.Gig) error
	ContactName(ctx context.Context, contactUserID *uuid.UUID) (*string, error)
	InsertSnapshot(ctx context.Context, g *models.Gig, contactName *string) error
}

// PlanSyncer lazily materializes the plan roster for a gig.
type PlanSyncer interface {
	EnsurePlans(ctx context.Context, gigID uuid.UUID) ([]models.Plan, error)
}

// Notifier fans out a gig event to its audience. Fire-and-forget: the
// save path never fails on notification errors.
type Notifier interface {
	Notify(ctx context.Context, gigID uuid.UUID, kind string, dates []time.Time) error
}

// Service runs the gig write path: validation, persistence, snapshot
// history, and the ordered post-save effects (plan sync, then change
// diff and notification fan-out).
type Service struct {
	store    Store
	plans    PlanSyncer
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a gig service.
func NewService(store Store, plans PlanSyncer, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, plans: plans, notifier: notifier, logger: logger}
}

// Validate checks a gig's temporal fields. isNew additionally rejects
// call times already in the past.
func Validate(g *models.Gig, isNew bool, now time.Time) error {
	if g.Date.IsZero() {
		return ErrDateRequired
	}
	if isNew && g.Date.Before(now) {
		return ErrDateInPast
	}
	if g.SetDate != nil && g.SetDate.Before(g.Date) {
		return ErrSetDateBeforeDate
	}
	if g.EndDate != nil && g.EndDate.Before(g.Date) {
		return ErrEndDateBeforeDate
	}
	return nil
}

// save persists one gig, appends its snapshot and syncs the plan
// roster. A failed contact lookup is logged and the snapshot still
// written with no contact name, so the two-slot history never skips a
// version.
func (s *Service) save(ctx context.Context, g *models.Gig, isNew bool) error {
	if isNew {
		if err := s.store.Create(ctx, g); err != nil {
			return fmt.Errorf("create gig: %w", err)
		}
	} else {
		if err := s.store.Update(ctx, g); err != nil {
			return fmt.Errorf("update gig: %w", err)
		}
	}

	contactName, err := s.store.ContactName(ctx, g.ContactUserID)
	if err != nil {
		s.logger.Warn("contact lookup failed", zap.Error(err), zap.String("gig_id", g.ID.String()))
		contactName = nil
	}
	if err := s.store.InsertSnapshot(ctx, g, contactName); err != nil {
		return fmt.Errorf("snapshot gig: %w", err)
	}

	if _, err := s.plans.EnsurePlans(ctx, g.ID); err != nil {
		s.logger.Error("ensure plans failed", zap.Error(err), zap.String("gig_id", g.ID.String()))
	}
	return nil
}

// Save validates and persists a gig, appends a snapshot, and runs the
// post-save effects in order: plan sync, then notification (which diffs
// the two newest snapshots itself).
func (s *Service) Save(ctx context.Context, g *models.Gig, isNew bool) error {
	if err := Validate(g, isNew, time.Now()); err != nil {
		return err
	}
	if err := s.save(ctx, g, isNew); err != nil {
		return err
	}

	kind := EventEdited
	if isNew {
		kind = EventCreated
	}
	if err := s.notifier.Notify(ctx, g.ID, kind, nil); err != nil {
		s.logger.Error("notify failed", zap.Error(err), zap.String("gig_id", g.ID.String()), zap.String("kind", kind))
	}
	return nil
}

// SaveSeries validates and persists a recurring series from its seed and
// returns every call date including the seed's, in creation order. Each
// clone copies all seed fields except the dates and gets a fresh
// calendar-feed ID. The one created notification, listing every date,
// goes out only after the last instance is persisted, so members are
// never told about dates that do not exist. The seed is validated once;
// generated instances inherit that validity and are not re-checked.
func (s *Service) SaveSeries(ctx context.Context, seed *models.Gig, count int, period string) ([]time.Time, error) {
	if err := Validate(seed, true, time.Now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, seed, true); err != nil {
		return nil, err
	}

	dates := SeriesDates(seed.Date, count, period)
	offsets := offsetsFromSeed(seed.Date, seed.SetDate, seed.EndDate)
	for _, date := range dates[1:] {
		clone := *seed
		clone.ID = uuid.Nil
		clone.CalFeedID = uuid.Nil
		clone.Date = date
		clone.SetDate, clone.EndDate = offsets.apply(date)
		if err := s.save(ctx, &clone, true); err != nil {
			return nil, fmt.Errorf("create series instance: %w", err)
		}
	}

	if err := s.notifier.Notify(ctx, seed.ID, EventCreated, dates); err != nil {
		s.logger.Error("notify failed", zap.Error(err), zap.String("gig_id", seed.ID.String()), zap.String("kind", EventCreated))
	}
	return dates, nil
}
