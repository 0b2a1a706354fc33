package gigs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/middleware"
	"github.com/gigboard/backend/internal/organizations"
	"github.com/gigboard/backend/pkg/response"
)

// ContextOrganizationID is the context key for organization ID when org access is enforced.
const ContextOrganizationID = "organization_id"

// RequireGigOrgAccess validates that the user is a member of the gig's
// organization. Call after JWT.
func RequireGigOrgAccess(gigRepo *Repository, orgRepo *organizations.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		gigID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid gig id")
			c.Abort()
			return
		}
		g, err := gigRepo.GetByID(c.Request.Context(), gigID)
		if err != nil {
			response.NotFound(c, "gig not found")
			c.Abort()
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		ok, _ := orgRepo.UserHasOrgAccess(c.Request.Context(), g.OrganizationID, userID)
		if !ok {
			response.Forbidden(c, "not authorized for this organization")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, g.OrganizationID)
		c.Next()
	}
}

// RequireOrgAccess validates membership for routes keyed by organization ID.
func RequireOrgAccess(orgRepo *organizations.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		ok, _ := orgRepo.UserHasOrgAccess(c.Request.Context(), orgID, userID)
		if !ok {
			response.Forbidden(c, "not authorized for this organization")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Next()
	}
}
