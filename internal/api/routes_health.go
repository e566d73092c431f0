package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, checks map[string]handlers.Pinger) {
	r.GET("/health", handlers.Health(checks))
}
