package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/api"
	"github.com/charlesng35/taskdesk/internal/app"
	iauth "github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/cache"
	sharedtestutil "github.com/charlesng35/taskdesk/internal/database/testutil"
	"github.com/charlesng35/taskdesk/internal/handlers"
	"github.com/charlesng35/taskdesk/internal/middleware"
	"github.com/charlesng35/taskdesk/internal/models"
	"github.com/charlesng35/taskdesk/internal/services"
	"github.com/charlesng35/taskdesk/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database
// and a miniredis token cache for handler tests.
type Env struct {
	T       *testing.T
	DB      *gorm.DB
	Redis   *miniredis.Miniredis
	Tokens  *cache.TokenCache
	Users   *services.UserService
	Auth    *services.AuthService
	Router  *gin.Engine
	Access  *iauth.JWTService
	Refresh *iauth.JWTService
	Config  *app.Config

	csrfToken  string
	csrfCookie *http.Cookie
}

// Option tweaks the configuration before the router is built.
type Option func(*app.Config)

// WithCSRF enables the CSRF middleware.
func WithCSRF() Option {
	return func(cfg *app.Config) { cfg.Server.CSRF.Enabled = true }
}

// WithRateLimit enables rate limiting with an in-memory store.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(cfg *app.Config) {
		cfg.Server.RateLimit.Requests = requests
		cfg.Server.RateLimit.Window = window
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewRedisStoreFromClient(client, "test")
	tokens := cache.NewTokenCache(store)

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 3000, Environment: "test"},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				AccessSecret:    "test-suite-access-secret",
				RefreshSecret:   "test-suite-refresh-secret",
				Issuer:          "test-suite",
				AccessTokenTTL:  time.Hour,
				RefreshTokenTTL: 24 * time.Hour,
			},
			Invitation: app.InvitationSettings{
				Secret:  "test-suite-invitation-secret",
				BaseURL: "http://taskdesk.test",
			},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	access, err := iauth.NewJWTService(cfg.Auth.AccessTokenConfig())
	require.NoError(t, err)
	refresh, err := iauth.NewJWTService(cfg.Auth.RefreshTokenConfig())
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	issuer, err := iauth.NewDualTokenIssuer(access, refresh, users)
	require.NoError(t, err)
	authSvc, err := services.NewAuthService(users, tokens, issuer, cfg.Auth.Invitation.Secret, cfg.Auth.AuthServiceOptions()...)
	require.NoError(t, err)
	categories, err := services.NewCategoryService(db)
	require.NoError(t, err)
	tasks, err := services.NewTaskService(db)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		Config:       cfg,
		AccessTokens: access,
		Issuer:       issuer,
		Auth:         authSvc,
		Users:        users,
		Categories:   categories,
		Tasks:        tasks,
		RateStore:    middleware.NewMemoryRateStore(),
		HealthChecks: map[string]handlers.Pinger{
			"cache": store,
		},
	})
	require.NoError(t, err)

	return &Env{
		T:       t,
		DB:      db,
		Redis:   mr,
		Tokens:  tokens,
		Users:   users,
		Auth:    authSvc,
		Router:  router,
		Access:  access,
		Refresh: refresh,
		Config:  cfg,
	}
}

// CreateUser inserts a user with the given role and returns the record.
func (e *Env) CreateUser(email, password string, role models.UserRole) *models.User {
	e.T.Helper()

	user, err := e.Users.Create(context.Background(), services.CreateUserInput{
		Name:     "Test " + string(role),
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(e.T, err)
	return user
}

// Session carries the credential cookies issued by login or refresh.
type Session struct {
	Access  *http.Cookie
	Refresh *http.Cookie
}

// Cookies returns the non-nil cookies in the session.
func (s Session) Cookies() []*http.Cookie {
	var out []*http.Cookie
	for _, c := range []*http.Cookie{s.Access, s.Refresh} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// SessionFrom extracts credential cookies from a response.
func SessionFrom(w *httptest.ResponseRecorder) Session {
	var s Session
	resp := w.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		switch c.Name {
		case iauth.AccessCookieName:
			s.Access = c
		case iauth.RefreshCookieName:
			s.Refresh = c
		}
	}
	return s
}

// Login authenticates via POST /auth/login and returns the issued cookies.
func (e *Env) Login(email, password string) Session {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	s := SessionFrom(w)
	require.NotNil(e.T, s.Access)
	require.NotNil(e.T, s.Refresh)
	return s
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON-encoding the body and attaching cookies.
func (e *Env) Request(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, cookies, false)
}

func (e *Env) request(method, path string, body any, cookies []*http.Cookie, skipCSRF bool) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	if !skipCSRF && e.Config.Server.CSRF.Enabled && requiresCSRFAttestation(method) {
		e.ensureCSRFToken()
		if e.csrfCookie != nil {
			req.AddCookie(e.csrfCookie)
		}
		if e.csrfToken != "" {
			req.Header.Set(middleware.CSRFHeaderName, e.csrfToken)
		}
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	e.captureCSRF(w.Result())
	return w
}

func (e *Env) ensureCSRFToken() {
	if e.csrfToken != "" && e.csrfCookie != nil {
		return
	}
	resp := e.request(http.MethodGet, "/health", nil, nil, true)
	require.Equal(e.T, http.StatusOK, resp.Code, resp.Body.String())
}

func (e *Env) captureCSRF(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	if token := resp.Header.Get(middleware.CSRFHeaderName); token != "" {
		e.csrfToken = token
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CSRFCookieName {
			e.csrfCookie = &http.Cookie{Name: c.Name, Value: c.Value}
			break
		}
	}
}

func requiresCSRFAttestation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
