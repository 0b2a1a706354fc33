package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigboard/backend/internal/models"
)

// ErrInvalidStatus is returned for a status outside the seven values.
var ErrInvalidStatus = errors.New("invalid plan status")

// Snooze thresholds for the Don't Know answer: far-out gigs snooze a
// week, nearer gigs until two days before, imminent gigs not at all.
const (
	snoozeFarThreshold  = 8 * 24 * time.Hour
	snoozeNearThreshold = 2 * 24 * time.Hour
	snoozeFarDuration   = 7 * 24 * time.Hour
)

// ComputeSnooze returns the snooze deadline applied when a member
// answers Don't Know, or nil when the gig is too close to bother.
func ComputeSnooze(gigDate, now time.Time) *time.Time {
	until := gigDate.Sub(now)
	switch {
	case until > snoozeFarThreshold:
		t := now.Add(snoozeFarDuration)
		return &t
	case until > snoozeNearThreshold:
		t := gigDate.Add(-snoozeNearThreshold)
		return &t
	default:
		return nil
	}
}

// NextSnooze returns the snooze value after a status change. Any
// transition away from a snoozed status clears the snooze; answering
// Don't Know computes a fresh one from the gig date.
func NextSnooze(newStatus models.PlanStatus, gigDate, now time.Time) *time.Time {
	if newStatus == models.PlanDontKnow {
		return ComputeSnooze(gigDate, now)
	}
	return nil
}

// MissingMemberships returns the memberships that have no plan yet for a
// gig. The SQL in EnsurePlans does the same set arithmetic; this form
// exists for the roster logic to be checked without a database.
func MissingMemberships(memberships []models.Membership, existing []models.Plan) []models.Membership {
	have := make(map[uuid.UUID]struct{}, len(existing))
	for _, p := range existing {
		have[p.MembershipID] = struct{}{}
	}
	var missing []models.Membership
	for _, m := range memberships {
		if _, ok := have[m.ID]; !ok {
			missing = append(missing, m)
		}
	}
	return missing
}

// ResolveSection returns a plan's effective section: the explicit
// override when set, the membership default otherwise.
func ResolveSection(planSectionID *uuid.UUID, defaultSectionID uuid.UUID) uuid.UUID {
	if planSectionID != nil {
		return *planSectionID
	}
	return defaultSectionID
}

// Store is the subset of the repository the answer path writes through.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	GigDate(ctx context.Context, planID uuid.UUID) (uuid.UUID, time.Time, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlanStatus, snoozeUntil *time.Time, markChanged bool) error
}

// Service runs plan write paths: the answer action with its snooze rule,
// and section overrides.
type Service struct {
	repo   Store
	logger *zap.Logger
}

// NewService creates a plans service.
func NewService(repo Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// SetStatus applies a status change to a plan. The snooze value is
// always recomputed: moving off a snoozed status clears it even when the
// caller passes nothing, and Don't Know gets the distance-based snooze.
// The watcher dirty bit rises only on an actual status transition, so
// re-submitting the same answer never produces a spurious digest line.
func (s *Service) SetStatus(ctx context.Context, planID uuid.UUID, status models.PlanStatus) (*models.Plan, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	current, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("plan lookup: %w", err)
	}
	_, gigDate, err := s.repo.GigDate(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("gig lookup: %w", err)
	}
	snooze := NextSnooze(status, gigDate, time.Now())
	if err := s.repo.UpdateStatus(ctx, planID, status, snooze, current.Status != status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return s.repo.GetByID(ctx, planID)
}
