package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus is a member's answer for a gig. The seven values are fully
// connected: any status may transition to any other directly.
type PlanStatus int

const (
	PlanNoPlan PlanStatus = iota
	PlanDefinitely
	PlanProbably
	PlanDontKnow
	PlanProbablyNot
	PlanCantDoIt
	PlanNotInterested
)

// Label returns the display name for a plan status.
func (s PlanStatus) Label() string {
	switch s {
	case PlanNoPlan:
		return "No Plan"
	case PlanDefinitely:
		return "Definitely"
	case PlanProbably:
		return "Probably"
	case PlanDontKnow:
		return "Don't Know"
	case PlanProbablyNot:
		return "Probably Not"
	case PlanCantDoIt:
		return "Can't Do It"
	case PlanNotInterested:
		return "Not Interested"
	}
	return "No Plan"
}

// Valid reports whether s is one of the seven defined statuses.
func (s PlanStatus) Valid() bool {
	return s >= PlanNoPlan && s <= PlanNotInterested
}

// Plan is one membership's attendance answer for one gig; unique per
// (gig, membership). SectionID is the resolved section: PlanSectionID
// when set, the membership's default section otherwise.
type Plan struct {
	ID            uuid.UUID  `json:"id"`
	GigID         uuid.UUID  `json:"gig_id"`
	MembershipID  uuid.UUID  `json:"membership_id"`
	Status        PlanStatus `json:"status"`
	SnoozeUntil   *time.Time `json:"snooze_until,omitempty"`
	StatusChanged bool       `json:"status_changed"` // dirty bit for watcher alerts
	Comment       string     `json:"comment"`
	FeedbackValue int        `json:"feedback_value"`
	SectionID     uuid.UUID  `json:"section_id"`
	PlanSectionID *uuid.UUID `json:"plan_section_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
