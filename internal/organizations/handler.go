package organizations

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/middleware"
	"github.com/gigboard/backend/internal/models"
	"github.com/gigboard/backend/pkg/response"
)

// CreateRequest is the body for POST /organizations.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug" binding:"required"`
	Timezone string `json:"timezone"`
}

// JoinRequest is the body for POST /organizations/join.
type JoinRequest struct {
	Slug string `json:"slug" binding:"required"`
}

// SectionRequest is the body for POST /organizations/:id/sections.
type SectionRequest struct {
	Name         string `json:"name" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

// DefaultSectionRequest is the body for PUT /memberships/:id/section.
type DefaultSectionRequest struct {
	SectionID string `json:"section_id" binding:"required,uuid"`
}

// MembershipFlagsRequest is the body for PATCH /memberships/:id.
type MembershipFlagsRequest struct {
	Status           models.MembershipStatus `json:"status" binding:"required"`
	IsOccasional     bool                    `json:"is_occasional"`
	EmailMe          bool                    `json:"email_me"`
	HideFromSchedule bool                    `json:"hide_from_schedule"`
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an organizations handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateOrganization handles POST /organizations. The creator becomes a
// confirmed member.
func (h *Handler) CreateOrganization(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		response.BadRequest(c, "invalid timezone")
		return
	}

	org := &models.Organization{Name: req.Name, Slug: req.Slug, Timezone: tz}
	if err := h.repo.Create(c.Request.Context(), org); err != nil {
		response.Internal(c, "failed to create organization")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m := &models.Membership{
		OrganizationID: org.ID,
		UserID:         userID,
		Status:         models.MembershipConfirmed,
		EmailMe:        true,
	}
	if err := h.repo.AddMembership(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to add creator membership")
		return
	}
	section, err := h.repo.DefaultSection(c.Request.Context(), org.ID)
	if err != nil {
		response.Internal(c, "failed to load default section")
		return
	}
	response.Created(c, gin.H{"organization": org, "default_section": section})
}

// JoinOrganization handles POST /organizations/join. The new membership
// starts pending and with the org's default section; no plans are created
// here — the next roster read picks the membership up.
func (h *Handler) JoinOrganization(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	org, err := h.repo.GetBySlug(c.Request.Context(), req.Slug)
	if err != nil {
		response.NotFound(c, "organization not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m := &models.Membership{
		OrganizationID: org.ID,
		UserID:         userID,
		Status:         models.MembershipPending,
		EmailMe:        true,
	}
	if err := h.repo.AddMembership(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to join organization")
		return
	}
	response.Created(c, m)
}

// ListMyOrganizations handles GET /organizations.
func (h *Handler) ListMyOrganizations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListOrganizationsForUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list organizations")
		return
	}
	response.OK(c, list)
}

// ListMembers handles GET /organizations/:id/members.
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, _ := h.repo.UserHasOrgAccess(c.Request.Context(), orgID, userID)
	if !ok {
		response.Forbidden(c, "not a member of this organization")
		return
	}
	list, err := h.repo.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, list)
}

// CreateSection handles POST /organizations/:id/sections.
func (h *Handler) CreateSection(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, _ := h.repo.UserHasOrgAccess(c.Request.Context(), orgID, userID)
	if !ok {
		response.Forbidden(c, "not a member of this organization")
		return
	}
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Section{OrganizationID: orgID, Name: req.Name, DisplayOrder: req.DisplayOrder}
	if err := h.repo.CreateSection(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create section")
		return
	}
	response.Created(c, s)
}

// ListSections handles GET /organizations/:id/sections.
func (h *Handler) ListSections(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.ListSections(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list sections")
		return
	}
	response.OK(c, list)
}

// SetDefaultSection handles PUT /memberships/:id/section. Only the
// membership's own user or an org member with access may change it; the
// dependent plans are re-sectioned in the same transaction.
func (h *Handler) SetDefaultSection(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}
	var req DefaultSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sectionID, err := uuid.Parse(req.SectionID)
	if err != nil {
		response.BadRequest(c, "invalid section_id")
		return
	}

	m, err := h.repo.GetMembership(c.Request.Context(), membershipID)
	if err != nil {
		response.NotFound(c, "membership not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if m.UserID != userID {
		ok, _ := h.repo.UserHasOrgAccess(c.Request.Context(), m.OrganizationID, userID)
		if !ok {
			response.Forbidden(c, "not authorized for this membership")
			return
		}
	}

	if err := h.repo.UpdateDefaultSection(c.Request.Context(), membershipID, sectionID); err != nil {
		if errors.Is(err, ErrSectionWrongOrganization) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Internal(c, "failed to update default section")
		return
	}
	updated, err := h.repo.GetMembership(c.Request.Context(), membershipID)
	if err != nil {
		response.Internal(c, "failed to reload membership")
		return
	}
	response.OK(c, updated)
}

// ConfirmMembership handles POST /memberships/:id/confirm. Any existing
// member of the organization may confirm a pending one.
func (h *Handler) ConfirmMembership(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}
	m, err := h.repo.GetMembership(c.Request.Context(), membershipID)
	if err != nil {
		response.NotFound(c, "membership not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, _ := h.repo.UserHasOrgAccess(c.Request.Context(), m.OrganizationID, userID)
	if !ok {
		response.Forbidden(c, "not authorized for this membership")
		return
	}
	if err := h.repo.ConfirmMembership(c.Request.Context(), membershipID); err != nil {
		response.Internal(c, "failed to confirm membership")
		return
	}
	updated, err := h.repo.GetMembership(c.Request.Context(), membershipID)
	if err != nil {
		response.Internal(c, "failed to reload membership")
		return
	}
	response.OK(c, updated)
}

// UpdateMembership handles PATCH /memberships/:id (status and flags).
func (h *Handler) UpdateMembership(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}
	m, err := h.repo.GetMembership(c.Request.Context(), membershipID)
	if err != nil {
		response.NotFound(c, "membership not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if m.UserID != userID {
		ok, _ := h.repo.UserHasOrgAccess(c.Request.Context(), m.OrganizationID, userID)
		if !ok {
			response.Forbidden(c, "not authorized for this membership")
			return
		}
	}
	var req MembershipFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	switch req.Status {
	case models.MembershipUnconfirmed, models.MembershipConfirmed, models.MembershipInvited, models.MembershipPending:
	default:
		response.BadRequest(c, "invalid membership status")
		return
	}
	if err := h.repo.UpdateMembershipFlags(c.Request.Context(), membershipID, req.Status, req.IsOccasional, req.EmailMe, req.HideFromSchedule); err != nil {
		response.Internal(c, "failed to update membership")
		return
	}
	updated, err := h.repo.GetMembership(c.Request.Context(), membershipID)
	if err != nil {
		response.Internal(c, "failed to reload membership")
		return
	}
	response.OK(c, updated)
}
