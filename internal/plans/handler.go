package plans

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/middleware"
	"github.com/gigboard/backend/internal/models"
	"github.com/gigboard/backend/internal/organizations"
	"github.com/gigboard/backend/pkg/response"
)

// StatusRequest is the body for PUT /plans/:id/status and the public
// answer action.
type StatusRequest struct {
	Status int `json:"status"`
}

// SectionRequest is the body for PUT /plans/:id/section. A null
// section_id clears the override.
type SectionRequest struct {
	SectionID *string `json:"section_id"`
}

// CommentRequest is the body for PUT /plans/:id/comment.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// FeedbackRequest is the body for PUT /plans/:id/feedback.
type FeedbackRequest struct {
	Value int `json:"value"`
}

// Handler handles plan HTTP endpoints.
type Handler struct {
	repo    *Repository
	service *Service
	orgRepo *organizations.Repository
}

// NewHandler creates a plans handler.
func NewHandler(repo *Repository, service *Service, orgRepo *organizations.Repository) *Handler {
	return &Handler{repo: repo, service: service, orgRepo: orgRepo}
}

// ListByGig handles GET /gigs/:id/plans. Reading the roster is what
// lazily creates missing plans.
func (h *Handler) ListByGig(c *gin.Context) {
	gigID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	list, err := h.repo.EnsurePlans(c.Request.Context(), gigID)
	if err != nil {
		response.Internal(c, "failed to load plans")
		return
	}
	response.OK(c, list)
}

// requirePlanAccess loads the plan and checks the caller owns its
// membership or belongs to the plan's organization.
func (h *Handler) requirePlanAccess(c *gin.Context) (*models.Plan, bool) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid plan id")
		return nil, false
	}
	p, err := h.repo.GetByID(c.Request.Context(), planID)
	if err != nil {
		response.NotFound(c, "plan not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m, err := h.orgRepo.GetMembership(c.Request.Context(), p.MembershipID)
	if err != nil {
		response.NotFound(c, "membership not found")
		return nil, false
	}
	if m.UserID != userID {
		ok, _ := h.orgRepo.UserHasOrgAccess(c.Request.Context(), m.OrganizationID, userID)
		if !ok {
			response.Forbidden(c, "not authorized for this plan")
			return nil, false
		}
	}
	return p, true
}

// SetStatus handles PUT /plans/:id/status.
func (h *Handler) SetStatus(c *gin.Context) {
	p, ok := h.requirePlanAccess(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.service.SetStatus(c.Request.Context(), p.ID, models.PlanStatus(req.Status))
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Internal(c, "failed to update plan")
		return
	}
	response.OK(c, updated)
}

// Answer handles POST /answer/:id — the public answer action reached
// from notification mail, no login required. The plan ID doubles as the
// capability token, matching the mailed link.
func (h *Handler) Answer(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid plan id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.service.SetStatus(c.Request.Context(), planID, models.PlanStatus(req.Status))
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.BadRequest(c, err.Error())
			return
		}
		response.NotFound(c, "plan not found")
		return
	}
	response.OK(c, updated)
}

// SetSection handles PUT /plans/:id/section.
func (h *Handler) SetSection(c *gin.Context) {
	p, ok := h.requirePlanAccess(c)
	if !ok {
		return
	}
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var sectionID *uuid.UUID
	if req.SectionID != nil {
		id, err := uuid.Parse(*req.SectionID)
		if err != nil {
			response.BadRequest(c, "invalid section_id")
			return
		}
		sectionID = &id
	}
	if err := h.repo.SetSectionOverride(c.Request.Context(), p.ID, sectionID); err != nil {
		if errors.Is(err, ErrSectionWrongOrganization) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Internal(c, "failed to update section")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), p.ID)
	if err != nil {
		response.Internal(c, "failed to reload plan")
		return
	}
	response.OK(c, updated)
}

// SetComment handles PUT /plans/:id/comment.
func (h *Handler) SetComment(c *gin.Context) {
	p, ok := h.requirePlanAccess(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.UpdateComment(c.Request.Context(), p.ID, req.Comment); err != nil {
		response.Internal(c, "failed to update comment")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), p.ID)
	if err != nil {
		response.Internal(c, "failed to reload plan")
		return
	}
	response.OK(c, updated)
}

// SetFeedback handles PUT /plans/:id/feedback.
func (h *Handler) SetFeedback(c *gin.Context) {
	p, ok := h.requirePlanAccess(c)
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.UpdateFeedback(c.Request.Context(), p.ID, req.Value); err != nil {
		response.Internal(c, "failed to update feedback")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), p.ID)
	if err != nil {
		response.Internal(c, "failed to reload plan")
		return
	}
	response.OK(c, updated)
}
