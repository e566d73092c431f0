package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskdesk/internal/cache"
	"github.com/charlesng35/taskdesk/internal/models"
	"github.com/charlesng35/taskdesk/pkg/crypto"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
)

func statusOf(err error) int {
	return apperrors.FromError(err).StatusCode
}

func TestRegisterThenLogin(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)
	invitation := fx.invite(t, admin.ID)

	user, err := fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "A@X.com", Password: testPassword}, invitation)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)

	loggedIn, creds, err := fx.auth.Login(ctx, "a@x.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, creds.AccessToken)
	require.NotEmpty(t, creds.RefreshToken)

	stored, err := fx.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	require.True(t, crypto.VerifyPassword(*stored.RefreshTokenHash, creds.RefreshToken))

	_, _, err = fx.auth.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)
	require.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestLoginUnknownUser(t *testing.T) {
	fx := newAuthFixture(t)

	_, _, err := fx.auth.Login(context.Background(), "nobody@x.com", testPassword)
	require.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestRegisterConsumesInvitation(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)
	invitation := fx.invite(t, admin.ID)

	_, err := fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, invitation)
	require.NoError(t, err)

	token := strings.SplitN(invitation, ".", 2)[0]
	record, err := fx.tokens.GetToken(ctx, token)
	require.NoError(t, err)
	require.Nil(t, record)

	_, err = fx.auth.Register(ctx, RegisterInput{Name: "Bob", Email: "b@x.com", Password: testPassword}, invitation)
	require.ErrorIs(t, err, ErrInvalidInvitation)
	require.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestRegisterWithBadInvitationCreatesNothing(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	for _, invitation := range []string{"", "garbage", "garbage.1700000000"} {
		_, err := fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, invitation)
		require.ErrorIs(t, err, ErrInvalidInvitation)
	}

	user, err := fx.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestRegisterDuplicateEmailKeepsInvitation(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)
	invitation := fx.invite(t, admin.ID)

	_, err := fx.auth.Register(ctx, RegisterInput{Name: "Dup", Email: "admin@example.com", Password: testPassword}, invitation)
	require.ErrorIs(t, err, ErrEmailInUse)
	require.Equal(t, http.StatusConflict, statusOf(err))
	require.Equal(t, "Email already in use!", apperrors.FromError(err).Message)

	_, err = fx.auth.Register(ctx, RegisterInput{Name: "New", Email: "new@x.com", Password: testPassword}, invitation)
	require.NoError(t, err)
}

func TestRegisterRejectsResetToken(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	token, err := fx.auth.ForgotPassword(ctx, admin.Email)
	require.NoError(t, err)

	_, err = fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, token)
	require.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestGenerateInvitationLink(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	link, err := fx.auth.GenerateInvitation(ctx, admin.ID)
	require.NoError(t, err)

	value, found := strings.CutPrefix(link, "http://localhost:8000/auth/register?invitation=")
	require.True(t, found, link)
	parts := strings.Split(value, ".")
	require.Len(t, parts, 3)
	require.Equal(t, "1714557600", parts[1])
	require.Len(t, parts[2], 2*invitationNonceBytes)

	expectedToken, err := crypto.SignHMAC([]byte("invitation-secret"), admin.Email+parts[1]+parts[2])
	require.NoError(t, err)
	require.Equal(t, expectedToken, parts[0])

	record, err := fx.tokens.GetToken(ctx, expectedToken)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, cache.PurposeInvitation, record.Purpose)
	require.Equal(t, admin.Email, record.Email)

	_, err = fx.auth.GenerateInvitation(ctx, "missing-admin")
	require.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestSecondInvitationInvalidatesFirst(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	first := fx.invite(t, admin.ID)
	fx.now = fx.now.Add(time.Minute)
	second := fx.invite(t, admin.ID)
	require.NotEqual(t, first, second)

	_, err := fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, first)
	require.ErrorIs(t, err, ErrInvalidInvitation)

	_, err = fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, second)
	require.NoError(t, err)
}

func TestRepeatedInvitationWithinOneSecond(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	first := fx.invite(t, admin.ID)
	fx.now = fx.now.Add(500 * time.Millisecond)
	second := fx.invite(t, admin.ID)
	require.NotEqual(t, invitationToken(first), invitationToken(second))

	_, err := fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, first)
	require.ErrorIs(t, err, ErrInvalidInvitation)

	// Same clock reading
	third := fx.invite(t, admin.ID)
	require.NotEqual(t, invitationToken(second), invitationToken(third))

	_, err = fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, second)
	require.ErrorIs(t, err, ErrInvalidInvitation)

	_, err = fx.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@x.com", Password: testPassword}, third)
	require.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	_, creds, err := fx.auth.Login(ctx, admin.Email, testPassword)
	require.NoError(t, err)

	token, err := fx.auth.ForgotPassword(ctx, admin.Email)
	require.NoError(t, err)
	require.Len(t, token, 64)

	require.NoError(t, fx.auth.ResetPassword(ctx, token, "N3w!Password"))

	_, _, err = fx.auth.Login(ctx, admin.Email, testPassword)
	require.ErrorIs(t, err, ErrWrongPassword)
	_, _, err = fx.auth.Login(ctx, admin.Email, "N3w!Password")
	require.NoError(t, err)

	err = fx.auth.ResetPassword(ctx, token, "An0ther!Pass")
	require.ErrorIs(t, err, ErrInvalidResetToken)
	require.Equal(t, http.StatusNotFound, statusOf(err))

	// the refresh credential from before the reset no longer verifies
	_, err = fx.issuer.VerifyRefresh(ctx, creds.RefreshToken)
	require.Error(t, err)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.auth.ForgotPassword(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPasswordRejectsInvitationToken(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)
	invitation := fx.invite(t, admin.ID)
	token := strings.SplitN(invitation, ".", 2)[0]

	err := fx.auth.ResetPassword(ctx, token, "N3w!Password")
	require.ErrorIs(t, err, ErrInvalidResetToken)

	_, _, err = fx.auth.Login(ctx, admin.Email, testPassword)
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	err := fx.auth.ChangePassword(ctx, admin.ID, "not-the-password", "N3w!Password")
	require.ErrorIs(t, err, ErrCurrentPassword)
	require.Equal(t, http.StatusBadRequest, statusOf(err))

	_, _, err = fx.auth.Login(ctx, admin.Email, testPassword)
	require.NoError(t, err, "password must be unchanged after a rejected change")

	require.NoError(t, fx.auth.ChangePassword(ctx, admin.ID, testPassword, "N3w!Password"))
	_, _, err = fx.auth.Login(ctx, admin.Email, "N3w!Password")
	require.NoError(t, err)

	err = fx.auth.ChangePassword(ctx, "missing", testPassword, "N3w!Password")
	require.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestRefreshAndLogout(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	admin := fx.createAdmin(t)

	_, creds, err := fx.auth.Login(ctx, admin.Email, testPassword)
	require.NoError(t, err)

	user, err := fx.issuer.VerifyRefresh(ctx, creds.RefreshToken)
	require.NoError(t, err)

	rotated, err := fx.auth.Refresh(ctx, user)
	require.NoError(t, err)
	require.NotEqual(t, creds.RefreshToken, rotated.RefreshToken)

	_, err = fx.issuer.VerifyRefresh(ctx, creds.RefreshToken)
	require.Error(t, err, "rotated refresh token must replace the old one")

	require.NoError(t, fx.auth.Logout(ctx, admin.ID))
	_, err = fx.issuer.VerifyRefresh(ctx, rotated.RefreshToken)
	require.Error(t, err)
}

func TestNewAuthServiceValidatesDependencies(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := NewAuthService(nil, fx.tokens, fx.issuer, "secret")
	require.Error(t, err)
	_, err = NewAuthService(fx.users, nil, fx.issuer, "secret")
	require.Error(t, err)
	_, err = NewAuthService(fx.users, fx.tokens, nil, "secret")
	require.Error(t, err)
	_, err = NewAuthService(fx.users, fx.tokens, fx.issuer, " ")
	require.Error(t, err)
}

func TestInvitationTokenNormalisation(t *testing.T) {
	require.Equal(t, "abc", invitationToken(" abc.1700000000 "))
	require.Equal(t, "abc", invitationToken("abc.1700000000.00ff00ff00ff00ff"))
	require.Equal(t, "abc", invitationToken("abc"))
	require.Equal(t, "", invitationToken(""))
}
