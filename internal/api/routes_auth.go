package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/handlers"
)

type authRouteDeps struct {
	Handler     *handlers.AuthHandler
	RequireAuth gin.HandlerFunc
	Refresh     gin.HandlerFunc
	AdminOnly   gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, deps authRouteDeps) {
	auth := engine.Group("/auth")
	{
		auth.POST("/login", deps.Handler.Login)
		auth.POST("/register", deps.Handler.Register)
		auth.POST("/forgot-password", deps.Handler.ForgotPassword)
		auth.POST("/reset-password", deps.Handler.ResetPassword)
		auth.POST("/refresh", deps.Refresh, deps.Handler.Refresh)

		auth.PATCH("/change-password", deps.RequireAuth, deps.Handler.ChangePassword)
		auth.POST("/logout", deps.RequireAuth, deps.Handler.Logout)
		auth.GET("/me", deps.RequireAuth, deps.Handler.Me)
		auth.POST("/send-invitation", deps.RequireAuth, deps.AdminOnly, deps.Handler.SendInvitation)
	}
}
