package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/models"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
	"github.com/charlesng35/taskdesk/pkg/metrics"
	"github.com/charlesng35/taskdesk/pkg/response"
)

// RequireRole admits only principals whose role is in the declared set.
// It must run after Auth or RefreshAuth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.GetString(CtxUserIDKey) == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		role, ok := models.ParseUserRole(c.GetString(CtxRoleKey))
		label := string(role)
		if !ok {
			label = "unknown"
		}

		if _, permitted := allowed[role]; !ok || !permitted {
			metrics.PermissionChecks.WithLabelValues(label, "denied").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.PermissionChecks.WithLabelValues(label, "allowed").Inc()
		c.Next()
	}
}
