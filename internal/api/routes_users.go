package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/handlers"
)

func registerUserRoutes(engine *gin.Engine, handler *handlers.UserHandler, requireAuth, adminOnly gin.HandlerFunc) {
	users := engine.Group("/users")
	users.Use(requireAuth, adminOnly)
	{
		users.GET("", handler.List)
		users.PATCH("/:id/role", handler.UpdateRole)
	}
}
