package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/cache"
	"github.com/charlesng35/taskdesk/internal/database/testutil"
	"github.com/charlesng35/taskdesk/internal/models"
)

const testPassword = "Str0ng!Pass"

type authFixture struct {
	db     *gorm.DB
	users  *UserService
	store  *cache.DatabaseStore
	tokens *cache.TokenCache
	issuer *auth.DualTokenIssuer
	auth   *AuthService
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	users, err := NewUserService(db)
	require.NoError(t, err)

	store := cache.NewDatabaseStore(db)
	tokens := cache.NewTokenCache(store)

	access, err := auth.NewJWTService(auth.JWTConfig{Secret: "access-secret", Issuer: "taskdesk", Use: auth.TokenUseAccess})
	require.NoError(t, err)
	refresh, err := auth.NewJWTService(auth.JWTConfig{Secret: "refresh-secret", Issuer: "taskdesk", Use: auth.TokenUseRefresh})
	require.NoError(t, err)
	issuer, err := auth.NewDualTokenIssuer(access, refresh, users)
	require.NoError(t, err)

	fx := &authFixture{
		db:     db,
		users:  users,
		store:  store,
		tokens: tokens,
		issuer: issuer,
		now:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	svc, err := NewAuthService(users, tokens, issuer, "invitation-secret",
		WithInvitationBaseURL("http://localhost:8000/"),
		WithAuthClock(func() time.Time { return fx.now }),
	)
	require.NoError(t, err)
	fx.auth = svc

	return fx
}

func (fx *authFixture) createAdmin(t *testing.T) *models.User {
	t.Helper()
	admin, err := fx.users.Create(context.Background(), CreateUserInput{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: testPassword,
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	return admin
}

// invite returns the invitation query value carried by a freshly generated link.
func (fx *authFixture) invite(t *testing.T, adminID string) string {
	t.Helper()
	link, err := fx.auth.GenerateInvitation(context.Background(), adminID)
	require.NoError(t, err)
	_, value, found := strings.Cut(link, "invitation=")
	require.True(t, found, "expected invitation query in %s", link)
	return value
}
