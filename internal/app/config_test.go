package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/database"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Server.IsProduction())
	require.True(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, 20, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.True(t, cfg.Cache.Redis.TLS)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)
	require.Equal(t, "td", cfg.Cache.Redis.KeyPrefix)

	require.Equal(t, "access-secret", cfg.Auth.JWT.AccessSecret)
	require.Equal(t, "refresh-secret", cfg.Auth.JWT.RefreshSecret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.AccessTokenTTL)
	require.Equal(t, 72*time.Hour, cfg.Auth.JWT.RefreshTokenTTL)
	require.Equal(t, "https://tasks.example.com", cfg.Auth.Invitation.BaseURL)
	require.Equal(t, 12*time.Hour, cfg.Auth.Invitation.TTL)
	require.Equal(t, 10*time.Minute, cfg.Auth.PasswordReset.TTL)
	require.Equal(t, "root@example.com", cfg.Auth.BootstrapAdmin.Email)

	require.Equal(t, "@every 10m", cfg.Maintenance.CacheCleanupSchedule)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("TASKDESK_SERVER_PORT", "8088")
	t.Setenv("TASKDESK_AUTH_JWT_ACCESS_TOKEN_TTL", "5m")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8088, cfg.Server.Port)
	require.False(t, cfg.Server.IsProduction())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 5*time.Minute, cfg.Auth.JWT.AccessTokenTTL)
	require.Equal(t, 168*time.Hour, cfg.Auth.JWT.RefreshTokenTTL)
	require.Equal(t, 100, cfg.Server.RateLimit.Requests)
	require.Equal(t, "@hourly", cfg.Maintenance.CacheCleanupSchedule)
	require.Equal(t, "taskdesk", cfg.Cache.Redis.KeyPrefix)
	require.False(t, cfg.Cache.Redis.FallbackToDatabase)
}

func TestLoadConfigRedisFallbackFromEnv(t *testing.T) {
	t.Setenv("TASKDESK_CACHE_REDIS_FALLBACK_TO_DATABASE", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.True(t, cfg.Cache.Redis.FallbackToDatabase)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			AccessSecret:    "a",
			RefreshSecret:   "r",
			Issuer:          "issuer",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 10 * time.Hour,
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret: "a",
		Issuer: "issuer",
		Use:    auth.TokenUseAccess,
		TTL:    30 * time.Minute,
	}, cfg.AccessTokenConfig())

	require.Equal(t, auth.JWTConfig{
		Secret: "r",
		Issuer: "issuer",
		Use:    auth.TokenUseRefresh,
		TTL:    10 * time.Hour,
	}, cfg.RefreshTokenConfig())

	require.Len(t, cfg.AuthServiceOptions(), 3)
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.AccessTokenConfig().TTL)
	require.Equal(t, auth.DefaultRefreshTokenTTL, cfg.RefreshTokenConfig().TTL)

	_, ok := cfg.BootstrapAdminInput()
	require.False(t, ok)

	cfg.BootstrapAdmin = BootstrapAdminSettings{Name: " Root ", Email: " root@example.com ", Password: "pw"}
	input, ok := cfg.BootstrapAdminInput()
	require.True(t, ok)
	require.Equal(t, "Root", input.Name)
	require.Equal(t, "root@example.com", input.Email)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: " MySQL ",
		MySQL: DBAuthConfig{
			Host:     "mysql.local",
			Port:     3307,
			Database: "tasks",
			Username: "app",
			Password: "pw",
		},
	}

	require.Equal(t, database.Config{
		Driver:   "mysql",
		Host:     "mysql.local",
		Port:     3307,
		Name:     "tasks",
		User:     "app",
		Password: "pw",
	}, cfg.ConnectionConfig())

	require.Equal(t, "sqlite", DatabaseConfig{Path: "x.db"}.ConnectionConfig().Driver)
	require.Equal(t, "oracle", DatabaseConfig{Driver: "oracle"}.ConnectionConfig().Driver)
}

func TestRedisClientConfig(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " 10.0.0.1:6379 ", DB: 3, KeyPrefix: " td "}}
	redisCfg := cfg.RedisClientConfig()
	require.Equal(t, "10.0.0.1:6379", redisCfg.Address)
	require.Equal(t, 3, redisCfg.DB)
	require.Equal(t, "td", redisCfg.KeyPrefix)
}
