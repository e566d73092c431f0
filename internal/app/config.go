package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. TASKDESK_SERVER_PORT.
const EnvPrefix = "TASKDESK"

// Config represents the runtime configuration for the taskdesk backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int             `mapstructure:"port"`
	LogLevel    string          `mapstructure:"log_level"`
	Environment string          `mapstructure:"environment"`
	CSRF        CSRFConfig      `mapstructure:"csrf"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// IsProduction reports whether the server runs with production hardening
// (secure cookies, HSTS, JSON logs).
func (c ServerConfig) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// CSRFConfig controls CSRF protection middleware.
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitConfig bounds requests per client and route. Zero disables limiting.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TLS       bool          `mapstructure:"tls"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	// FallbackToDatabase keeps the server starting on the database store when Redis is unreachable.
	FallbackToDatabase bool `mapstructure:"fallback_to_database"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT            JWTSettings            `mapstructure:"jwt"`
	Invitation     InvitationSettings     `mapstructure:"invitation"`
	PasswordReset  PasswordResetSettings  `mapstructure:"password_reset"`
	BootstrapAdmin BootstrapAdminSettings `mapstructure:"bootstrap_admin"`
}

// JWTSettings configures the access and refresh signers. The two secrets must differ.
type JWTSettings struct {
	AccessSecret    string        `mapstructure:"access_secret"`
	RefreshSecret   string        `mapstructure:"refresh_secret"`
	Issuer          string        `mapstructure:"issuer"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// InvitationSettings configures invitation links.
type InvitationSettings struct {
	Secret  string        `mapstructure:"secret"`
	BaseURL string        `mapstructure:"base_url"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// PasswordResetSettings configures forgot-password tokens.
type PasswordResetSettings struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// BootstrapAdminSettings seeds the first administrator. Empty email disables seeding.
type BootstrapAdminSettings struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// MaintenanceConfig schedules background jobs using cron expressions.
type MaintenanceConfig struct {
	CacheCleanupSchedule string `mapstructure:"cache_cleanup_schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.csrf.enabled", false)
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/taskdesk.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "taskdesk")
	v.SetDefault("database.postgres.username", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.database", "taskdesk")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.redis.key_prefix", "taskdesk")
	v.SetDefault("cache.redis.fallback_to_database", false)

	v.SetDefault("auth.jwt.access_secret", "")
	v.SetDefault("auth.jwt.refresh_secret", "")
	v.SetDefault("auth.jwt.issuer", "taskdesk")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.jwt.refresh_token_ttl", "168h")
	v.SetDefault("auth.invitation.secret", "")
	v.SetDefault("auth.invitation.base_url", "http://localhost:3000")
	v.SetDefault("auth.invitation.ttl", "24h")
	v.SetDefault("auth.password_reset.ttl", "15m")
	v.SetDefault("auth.bootstrap_admin.name", "Administrator")
	v.SetDefault("auth.bootstrap_admin.email", "")
	v.SetDefault("auth.bootstrap_admin.password", "")

	v.SetDefault("maintenance.cache_cleanup_schedule", "@hourly")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
