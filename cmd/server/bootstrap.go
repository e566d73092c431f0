package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/api"
	"github.com/charlesng35/taskdesk/internal/app"
	"github.com/charlesng35/taskdesk/internal/app/maintenance"
	iauth "github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/cache"
	"github.com/charlesng35/taskdesk/internal/database"
	"github.com/charlesng35/taskdesk/internal/handlers"
	"github.com/charlesng35/taskdesk/internal/middleware"
	"github.com/charlesng35/taskdesk/internal/services"
	"github.com/charlesng35/taskdesk/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Store     cache.Store
	Users     *services.UserService
	Auth      *services.AuthService
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, token cache, services and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	stack.Store = dbStore
	if cfg.Cache.Redis.Enabled {
		stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
		switch {
		case err == nil:
			stack.Store = stack.Redis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		case cfg.Cache.Redis.FallbackToDatabase:
			log.Warn("redis unavailable; falling back to database-backed token cache", zap.Error(err))
		default:
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	access, err := iauth.NewJWTService(cfg.Auth.AccessTokenConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise access token service: %w", err)
	}
	refresh, err := iauth.NewJWTService(cfg.Auth.RefreshTokenConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise refresh token service: %w", err)
	}

	stack.Users, err = services.NewUserService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	if input, ok := cfg.Auth.BootstrapAdminInput(); ok {
		admin, changed, err := stack.Users.EnsureAdmin(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if changed {
			log.Info("bootstrap admin ensured", zap.String("user_id", admin.ID))
		}
	}

	issuer, err := iauth.NewDualTokenIssuer(access, refresh, stack.Users)
	if err != nil {
		return nil, fmt.Errorf("initialise credential issuer: %w", err)
	}

	stack.Auth, err = services.NewAuthService(stack.Users, cache.NewTokenCache(stack.Store), issuer, cfg.Auth.Invitation.Secret, cfg.Auth.AuthServiceOptions()...)
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	categories, err := services.NewCategoryService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise category service: %w", err)
	}
	tasks, err := services.NewTaskService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise task service: %w", err)
	}

	// Redis expires keys itself; database rows need a sweep either way.
	stack.Cleaner = maintenance.NewCleaner([]maintenance.ExpiredPurger{dbStore}, maintenance.WithCacheSchedule(cfg.Maintenance.CacheCleanupSchedule))
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.RateStore = middleware.NewCacheRateStore(stack.Store)

	db := stack.DB
	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:       cfg,
		AccessTokens: access,
		Issuer:       issuer,
		Auth:         stack.Auth,
		Users:        stack.Users,
		Categories:   categories,
		Tasks:        tasks,
		RateStore:    stack.RateStore,
		HealthChecks: map[string]handlers.Pinger{
			"database": handlers.PingerFunc(func(ctx context.Context) error { return database.Ping(ctx, db) }),
			"cache":    stack.Store,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
