package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/internal/services"
	appErrors "github.com/worklog-app/worklog/pkg/errors"
	"github.com/worklog-app/worklog/pkg/metrics"
	"github.com/worklog-app/worklog/pkg/response"
)

const (
	// CtxOrgRoleKey holds the caller's role in the organization named by the route.
	CtxOrgRoleKey = "orgRole"
)

// RequireOrgMember verifies the authenticated user holds an active membership
// in the organization named by the :orgID route parameter. The resolved role
// is stored on the context for handlers that branch on it.
func RequireOrgMember(orgs *services.OrganizationService) gin.HandlerFunc {
	return requireRole(orgs, models.RoleMember)
}

// RequireOrgAdmin verifies the authenticated user is an active admin of the
// organization named by the :orgID route parameter.
func RequireOrgAdmin(orgs *services.OrganizationService) gin.HandlerFunc {
	return requireRole(orgs, models.RoleAdmin)
}

func requireRole(orgs *services.OrganizationService, required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		orgID := c.Param("orgID")
		if orgID == "" {
			response.Error(c, appErrors.NewBadRequest("organization id is required"))
			c.Abort()
			return
		}

		role, err := orgs.RoleOf(c.Request.Context(), orgID, userID)
		if errors.Is(err, services.ErrNotMember) {
			metrics.MembershipChecks.WithLabelValues(required, "denied").Inc()
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		if err != nil {
			metrics.MembershipChecks.WithLabelValues(required, "error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": appErrors.ErrInternalServer.Code, "message": "membership check failed"},
			})
			return
		}
		if required == models.RoleAdmin && role != models.RoleAdmin {
			metrics.MembershipChecks.WithLabelValues(required, "denied").Inc()
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.MembershipChecks.WithLabelValues(required, "allowed").Inc()
		c.Set(CtxOrgRoleKey, role)
		c.Next()
	}
}
