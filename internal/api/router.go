package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/taskdesk/internal/app"
	iauth "github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/handlers"
	"github.com/charlesng35/taskdesk/internal/middleware"
	"github.com/charlesng35/taskdesk/internal/models"
	"github.com/charlesng35/taskdesk/internal/services"
)

// Dependencies are the long-lived services the router dispatches to.
type Dependencies struct {
	Config       *app.Config
	AccessTokens *iauth.JWTService
	Issuer       iauth.CredentialIssuer
	Auth         *services.AuthService
	Users        *services.UserService
	Categories   *services.CategoryService
	Tasks        *services.TaskService
	RateStore    middleware.RateStore
	// HealthChecks are pinged by GET /health, keyed by dependency name.
	HealthChecks map[string]handlers.Pinger
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return errors.New("config must be provided")
	case d.AccessTokens == nil:
		return errors.New("access token service must be provided")
	case d.Issuer == nil:
		return errors.New("credential issuer must be provided")
	case d.Auth == nil, d.Users == nil:
		return errors.New("auth and user services must be provided")
	case d.Categories == nil, d.Tasks == nil:
		return errors.New("catalog services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	r.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	registerHealthRoutes(r, deps.HealthChecks)

	requireAuth := middleware.Auth(deps.AccessTokens)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	cookies := iauth.CookieOptions{Secure: cfg.Server.IsProduction()}

	registerAuthRoutes(r, authRouteDeps{
		Handler:     handlers.NewAuthHandler(deps.Auth, deps.Users, cookies),
		RequireAuth: requireAuth,
		Refresh:     middleware.RefreshAuth(deps.Issuer),
		AdminOnly:   adminOnly,
	})
	registerUserRoutes(r, handlers.NewUserHandler(deps.Users), requireAuth, adminOnly)
	registerCatalogRoutes(r, catalogRouteDeps{
		Categories:  handlers.NewCategoryHandler(deps.Categories),
		Tasks:       handlers.NewTaskHandler(deps.Tasks),
		RequireAuth: requireAuth,
		AdminOnly:   adminOnly,
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
