package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/handlers"
)

type catalogRouteDeps struct {
	Categories  *handlers.CategoryHandler
	Tasks       *handlers.TaskHandler
	RequireAuth gin.HandlerFunc
	AdminOnly   gin.HandlerFunc
}

// Reads need any authenticated principal; mutations need ADMIN.
func registerCatalogRoutes(engine *gin.Engine, deps catalogRouteDeps) {
	categories := engine.Group("/category-task")
	categories.Use(deps.RequireAuth)
	{
		categories.GET("", deps.Categories.List)
		categories.GET("/:id", deps.Categories.Get)
		categories.POST("", deps.AdminOnly, deps.Categories.Create)
		categories.PATCH("/:id", deps.AdminOnly, deps.Categories.Update)
		categories.DELETE("/:id", deps.AdminOnly, deps.Categories.Delete)
	}

	tasks := engine.Group("/tasks")
	tasks.Use(deps.RequireAuth)
	{
		tasks.GET("", deps.Tasks.List)
		tasks.GET("/:id", deps.Tasks.Get)
		tasks.POST("", deps.AdminOnly, deps.Tasks.Create)
		tasks.PATCH("/:id", deps.AdminOnly, deps.Tasks.Update)
		tasks.DELETE("/:id", deps.AdminOnly, deps.Tasks.Delete)
	}
}
