package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a band or ensemble owning gigs and memberships.
// Its timezone interprets all of its gigs' wall-clock times.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Section is a named sub-group within an organization (horns, rhythm, ...).
// Every organization has exactly one is_default section, created together
// with the organization and used as the fallback when a membership has no
// explicit default.
type Section struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	DisplayOrder   int       `json:"display_order"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}

// MembershipStatus is the confirmation state of a membership.
type MembershipStatus string

const (
	MembershipUnconfirmed MembershipStatus = "unconfirmed"
	MembershipConfirmed   MembershipStatus = "confirmed"
	MembershipInvited     MembershipStatus = "invited"
	MembershipPending     MembershipStatus = "pending"
)

// Membership links a user to an organization. DefaultSectionID is never
// null after creation; it starts as the organization's default section.
type Membership struct {
	ID               uuid.UUID        `json:"id"`
	OrganizationID   uuid.UUID        `json:"organization_id"`
	UserID           uuid.UUID        `json:"user_id"`
	Status           MembershipStatus `json:"status"`
	IsOccasional     bool             `json:"is_occasional"`
	EmailMe          bool             `json:"email_me"`
	HideFromSchedule bool             `json:"hide_from_schedule"`
	DefaultSectionID uuid.UUID        `json:"default_section_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
