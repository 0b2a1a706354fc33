package gigs

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/middleware"
	"github.com/gigboard/backend/internal/models"
	"github.com/gigboard/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /organizations/:id/gigs.
// RepeatCount/RepeatPeriod request a recurring series; the response then
// carries every generated call date.
type CreateRequest struct {
	Title             string  `json:"title" binding:"required"`
	Date              string  `json:"date" binding:"required"`
	SetDate           *string `json:"setdate"`
	EndDate           *string `json:"enddate"`
	IsFullDay         bool    `json:"is_full_day"`
	DateNotes         string  `json:"datenotes"`
	Details           string  `json:"details"`
	Address           string  `json:"address"`
	Dress             string  `json:"dress"`
	PayDeal           string  `json:"paydeal"`
	Setlist           string  `json:"setlist"`
	Status            string  `json:"status"`
	IsPrivate         bool    `json:"is_private"`
	InviteOccasionals bool    `json:"invite_occasionals"`
	HideFromCalendar  bool    `json:"hide_from_calendar"`
	ContactUserID     *string `json:"contact_user_id"`
	RepeatCount       int     `json:"repeat_count"`
	RepeatPeriod      string  `json:"repeat_period"`
}

// UpdateRequest is the body for PUT /gigs/:id.
type UpdateRequest struct {
	Title             string  `json:"title" binding:"required"`
	Date              string  `json:"date" binding:"required"`
	SetDate           *string `json:"setdate"`
	EndDate           *string `json:"enddate"`
	IsFullDay         bool    `json:"is_full_day"`
	DateNotes         string  `json:"datenotes"`
	Details           string  `json:"details"`
	Address           string  `json:"address"`
	Dress             string  `json:"dress"`
	PayDeal           string  `json:"paydeal"`
	Setlist           string  `json:"setlist"`
	PostGig           string  `json:"postgig"`
	Status            string  `json:"status"`
	IsPrivate         bool    `json:"is_private"`
	InviteOccasionals bool    `json:"invite_occasionals"`
	HideFromCalendar  bool    `json:"hide_from_calendar"`
	IsArchived        bool    `json:"is_archived"`
	ContactUserID     *string `json:"contact_user_id"`
}

// Handler handles gig HTTP endpoints.
type Handler struct {
	repo    *Repository
	service *Service
}

// NewHandler creates a gigs handler.
func NewHandler(repo *Repository, service *Service) *Handler {
	return &Handler{repo: repo, service: service}
}

func gigStatusFromString(s string) (models.GigStatus, bool) {
	switch models.GigStatus(s) {
	case models.GigUnconfirmed, models.GigConfirmed, models.GigCancelled, models.GigAsking:
		return models.GigStatus(s), true
	case "":
		return models.GigUnconfirmed, true
	}
	return "", false
}

func respondValidation(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, ErrDateRequired),
		errors.Is(err, ErrDateInPast),
		errors.Is(err, ErrSetDateBeforeDate),
		errors.Is(err, ErrEndDateBeforeDate):
		response.BadRequest(c, err.Error())
		return true
	}
	return false
}

// Create handles POST /organizations/:id/gigs (org member only).
func (h *Handler) Create(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	g, ok := h.gigFromRequest(c, orgID, req)
	if !ok {
		return
	}

	var dates []time.Time
	if req.RepeatCount > 1 {
		dates, err = h.service.SaveSeries(c.Request.Context(), g, req.RepeatCount, req.RepeatPeriod)
		if err != nil {
			if !respondValidation(c, err) {
				response.Internal(c, "failed to create gig series")
			}
			return
		}
	} else if err := h.service.Save(c.Request.Context(), g, true); err != nil {
		if !respondValidation(c, err) {
			response.Internal(c, "failed to create gig")
		}
		return
	}

	response.Created(c, gin.H{"gig": g, "series_dates": dates})
}

func (h *Handler) gigFromRequest(c *gin.Context, orgID uuid.UUID, req CreateRequest) (*models.Gig, bool) {
	date, err := parseTime(req.Date)
	if err != nil {
		response.BadRequest(c, "invalid date")
		return nil, false
	}
	var setDate, endDate *time.Time
	if req.SetDate != nil {
		t, err := parseTime(*req.SetDate)
		if err != nil {
			response.BadRequest(c, "invalid setdate")
			return nil, false
		}
		setDate = &t
	}
	if req.EndDate != nil {
		t, err := parseTime(*req.EndDate)
		if err != nil {
			response.BadRequest(c, "invalid enddate")
			return nil, false
		}
		endDate = &t
	}
	status, ok := gigStatusFromString(req.Status)
	if !ok {
		response.BadRequest(c, "invalid status")
		return nil, false
	}
	var contactID *uuid.UUID
	if req.ContactUserID != nil {
		id, err := uuid.Parse(*req.ContactUserID)
		if err != nil {
			response.BadRequest(c, "invalid contact_user_id")
			return nil, false
		}
		contactID = &id
	}
	return &models.Gig{
		OrganizationID:    orgID,
		Title:             req.Title,
		Date:              date,
		SetDate:           setDate,
		EndDate:           endDate,
		IsFullDay:         req.IsFullDay,
		DateNotes:         req.DateNotes,
		Details:           req.Details,
		Address:           req.Address,
		Dress:             req.Dress,
		PayDeal:           req.PayDeal,
		Setlist:           req.Setlist,
		Status:            status,
		IsPrivate:         req.IsPrivate,
		InviteOccasionals: req.InviteOccasionals,
		HideFromCalendar:  req.HideFromCalendar,
		ContactUserID:     contactID,
	}, true
}

// GetByID handles GET /gigs/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "gig not found")
		return
	}
	response.OK(c, g)
}

// ListByOrganization handles GET /organizations/:id/gigs.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to list gigs")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /gigs/:id (org member only, via RequireGigOrgAccess).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "gig not found")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, ok := h.gigFromRequest(c, g.OrganizationID, CreateRequest{
		Title: req.Title, Date: req.Date, SetDate: req.SetDate, EndDate: req.EndDate,
		IsFullDay: req.IsFullDay, DateNotes: req.DateNotes, Details: req.Details,
		Address: req.Address, Dress: req.Dress, PayDeal: req.PayDeal, Setlist: req.Setlist,
		Status: req.Status, IsPrivate: req.IsPrivate, InviteOccasionals: req.InviteOccasionals,
		HideFromCalendar: req.HideFromCalendar, ContactUserID: req.ContactUserID,
	})
	if !ok {
		return
	}
	updated.ID = g.ID
	updated.CalFeedID = g.CalFeedID
	updated.PostGig = req.PostGig
	updated.IsArchived = req.IsArchived

	if err := h.service.Save(c.Request.Context(), updated, false); err != nil {
		if !respondValidation(c, err) {
			response.Internal(c, "failed to update gig")
		}
		return
	}
	response.OK(c, updated)
}

// Trash handles DELETE /gigs/:id (soft delete).
func (h *Handler) Trash(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	if err := h.repo.Trash(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to trash gig")
		return
	}
	response.NoContent(c)
}

// Changes handles GET /gigs/:id/changes — the diff between the two most
// recent saves.
func (h *Handler) Changes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	current, previous, err := h.repo.LatestSnapshots(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load snapshots")
		return
	}
	response.OK(c, Diff(current, previous))
}

// Watch handles POST /gigs/:id/watch.
func (h *Handler) Watch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.AddWatcher(c.Request.Context(), id, userID); err != nil {
		response.Internal(c, "failed to watch gig")
		return
	}
	response.Created(c, gin.H{"gig_id": id, "user_id": userID})
}

// Unwatch handles DELETE /gigs/:id/watch.
func (h *Handler) Unwatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.RemoveWatcher(c.Request.Context(), id, userID); err != nil {
		response.Internal(c, "failed to unwatch gig")
		return
	}
	response.NoContent(c)
}
