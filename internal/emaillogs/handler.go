package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigboard/backend/pkg/response"
)

// Handler exposes the notification history and stats endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByGig handles GET /gigs/:id/emails.
func (h *Handler) ListByGig(c *gin.Context) {
	gigID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gig id")
		return
	}
	list, err := h.repo.ListByGig(c.Request.Context(), gigID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, list)
}

// Stats handles GET /organizations/:id/email-stats.
func (h *Handler) Stats(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.Stats(c.Request.Context(), orgID, 90)
	if err != nil {
		response.Internal(c, "failed to load email stats")
		return
	}
	response.OK(c, list)
}
