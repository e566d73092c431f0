package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/cache"
	"github.com/charlesng35/taskdesk/internal/models"
	"github.com/charlesng35/taskdesk/pkg/crypto"
	"github.com/charlesng35/taskdesk/pkg/logger"
	"github.com/charlesng35/taskdesk/pkg/metrics"
)

const (
	defaultInvitationTTL    = 24 * time.Hour
	defaultPasswordResetTTL = 15 * time.Minute
	resetTokenBytes         = 32
	invitationNonceBytes    = 8
)

// AuthOption customises AuthService behaviour.
type AuthOption func(*AuthService)

// WithInvitationBaseURL configures the base URL used to build invitation links.
func WithInvitationBaseURL(url string) AuthOption {
	return func(s *AuthService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// WithInvitationTTL overrides the invitation token lifetime.
func WithInvitationTTL(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.invitationTTL = d
		}
	}
}

// WithPasswordResetTTL overrides the forgot-password token lifetime.
func WithPasswordResetTTL(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.resetTTL = d
		}
	}
}

// WithAuthClock injects a custom clock primarily for testing.
func WithAuthClock(clock func() time.Time) AuthOption {
	return func(s *AuthService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// RegisterInput carries the account fields submitted with an invitation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService orchestrates login, invite-gated registration and password recovery.
type AuthService struct {
	users            *UserService
	tokens           *cache.TokenCache
	issuer           auth.CredentialIssuer
	invitationSecret []byte
	baseURL          string
	invitationTTL    time.Duration
	resetTTL         time.Duration
	now              func() time.Time
	log              *zap.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users *UserService, tokens *cache.TokenCache, issuer auth.CredentialIssuer, invitationSecret string, opts ...AuthOption) (*AuthService, error) {
	if users == nil {
		return nil, errors.New("auth service: user service is required")
	}
	if tokens == nil {
		return nil, errors.New("auth service: token cache is required")
	}
	if issuer == nil {
		return nil, errors.New("auth service: credential issuer is required")
	}
	if strings.TrimSpace(invitationSecret) == "" {
		return nil, errors.New("auth service: invitation secret is required")
	}

	service := &AuthService{
		users:            users,
		tokens:           tokens,
		issuer:           issuer,
		invitationSecret: []byte(invitationSecret),
		invitationTTL:    defaultInvitationTTL,
		resetTTL:         defaultPasswordResetTTL,
		now:              time.Now,
		log:              logger.WithModule("auth"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Login verifies the password and issues credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, auth.Credentials, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, auth.Credentials{}, err
	}
	if user == nil || user.Password == "" {
		recordAttempt("login", "failure")
		return nil, auth.Credentials{}, ErrUserNotFound
	}

	if !crypto.VerifyPassword(user.Password, password) {
		recordAttempt("login", "failure")
		s.log.Warn("login rejected", zap.String("user_id", user.ID))
		return nil, auth.Credentials{}, ErrWrongPassword
	}

	creds, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, auth.Credentials{}, err
	}

	recordAttempt("login", "success")
	return user, creds, nil
}

// Register consumes an invitation token and creates a USER account.
// Links carry "token.timestamp.nonce"; only the token part is looked up.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, invitation string) (*models.User, error) {
	ctx = ensureContext(ctx)

	token := invitationToken(invitation)
	record, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Purpose != cache.PurposeInvitation {
		recordAttempt("register", "failure")
		return nil, ErrInvalidInvitation
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		recordAttempt("register", "failure")
		return nil, ErrEmailInUse
	}

	user, err := s.users.Create(ctx, CreateUserInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	if err := s.tokens.DeleteToken(ctx, token); err != nil {
		return nil, err
	}

	recordAttempt("register", "success")
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	ctx = ensureContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return ErrCurrentPassword
	}
	return s.users.UpdatePassword(ctx, user.ID, newPassword)
}

// ForgotPassword stores a single-use reset token for the account and returns it.
// Delivering the token to the user happens out of band.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	token, err := crypto.GenerateHexToken(resetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("auth service: generate reset token: %w", err)
	}

	if err := s.tokens.SetToken(ctx, token, user.Email, cache.PurposeForgotPassword, s.resetTTL); err != nil {
		return "", err
	}

	s.log.Info("password reset requested", zap.String("user_id", user.ID))
	return token, nil
}

// ResetPassword redeems a forgot-password token. Outstanding refresh credentials are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	record, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		return err
	}
	if record == nil || record.Purpose != cache.PurposeForgotPassword {
		recordAttempt("reset", "failure")
		return ErrInvalidResetToken
	}

	user, err := s.users.FindByEmail(ctx, record.Email)
	if err != nil {
		return err
	}
	if user == nil {
		recordAttempt("reset", "failure")
		return ErrUserNotFound
	}

	if err := s.users.UpdatePassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	if err := s.tokens.DeleteToken(ctx, token); err != nil {
		return err
	}
	if err := s.issuer.Revoke(ctx, user.ID); err != nil {
		return err
	}

	recordAttempt("reset", "success")
	return nil
}

// GenerateInvitation replaces the admin's outstanding invitation and returns the registration link.
func (s *AuthService) GenerateInvitation(ctx context.Context, adminID string) (string, error) {
	ctx = ensureContext(ctx)

	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return "", err
	}

	// The nonce keeps two invitations generated within the same second distinct.
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	nonce, err := crypto.GenerateHexToken(invitationNonceBytes)
	if err != nil {
		return "", fmt.Errorf("auth service: invitation nonce: %w", err)
	}
	token, err := crypto.SignHMAC(s.invitationSecret, admin.Email+timestamp+nonce)
	if err != nil {
		return "", fmt.Errorf("auth service: sign invitation: %w", err)
	}

	previous, err := s.tokens.TokenByEmail(ctx, admin.Email, cache.PurposeInvitation)
	if err != nil {
		return "", err
	}
	if previous != "" {
		if err := s.tokens.DeleteToken(ctx, previous); err != nil {
			return "", err
		}
	}

	if err := s.tokens.SetToken(ctx, token, admin.Email, cache.PurposeInvitation, s.invitationTTL); err != nil {
		return "", err
	}

	s.log.Info("invitation generated", zap.String("admin_id", admin.ID))
	return fmt.Sprintf("%s/auth/register?invitation=%s.%s.%s", s.baseURL, token, timestamp, nonce), nil
}

// Refresh reissues credentials for a principal whose refresh credential already verified.
func (s *AuthService) Refresh(ctx context.Context, user *models.User) (auth.Credentials, error) {
	ctx = ensureContext(ctx)

	creds, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return auth.Credentials{}, err
	}
	recordAttempt("refresh", "success")
	return creds, nil
}

// Logout revokes the user's refresh credential.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.issuer.Revoke(ensureContext(ctx), userID)
}

func invitationToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "."); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

func recordAttempt(flow, result string) {
	metrics.AuthAttempts.WithLabelValues(flow, result).Inc()
}
