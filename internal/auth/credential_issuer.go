package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/taskdesk/internal/models"
	"github.com/charlesng35/taskdesk/pkg/crypto"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
	"github.com/charlesng35/taskdesk/pkg/metrics"
)

// ErrInvalidRefreshToken is returned when a refresh credential fails any check.
var ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")

// Credentials is the pair handed to a client after authentication.
type Credentials struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// CredentialIssuer issues, verifies and revokes client credentials.
type CredentialIssuer interface {
	Issue(ctx context.Context, user *models.User) (Credentials, error)
	VerifyRefresh(ctx context.Context, refreshToken string) (*models.User, error)
	Revoke(ctx context.Context, userID string) error
}

// RefreshTokenStore persists the digest of the last refresh token issued to a user.
type RefreshTokenStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetRefreshTokenHash(ctx context.Context, userID string, hash *string) error
}

// DualTokenIssuer signs an access and a refresh JWT under distinct secrets and keeps
// an Argon2id digest of the refresh JWT on the user row.
type DualTokenIssuer struct {
	access  *JWTService
	refresh *JWTService
	users   RefreshTokenStore
}

var _ CredentialIssuer = (*DualTokenIssuer)(nil)

// NewDualTokenIssuer wires the two signers to the user store.
func NewDualTokenIssuer(access, refresh *JWTService, users RefreshTokenStore) (*DualTokenIssuer, error) {
	if access == nil || refresh == nil {
		return nil, errors.New("credential issuer: access and refresh signers are required")
	}
	if users == nil {
		return nil, errors.New("credential issuer: user store is required")
	}
	if access.use == refresh.use {
		return nil, errors.New("credential issuer: signers must differ in token use")
	}
	return &DualTokenIssuer{access: access, refresh: refresh, users: users}, nil
}

// Issue signs a new pair and replaces the stored refresh digest.
func (i *DualTokenIssuer) Issue(ctx context.Context, user *models.User) (Credentials, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return Credentials{}, errors.New("credential issuer: user is required")
	}

	input := TokenInput{UserID: user.ID, Role: string(user.Role)}

	accessToken, accessExp, err := i.access.GenerateToken(input)
	if err != nil {
		return Credentials{}, fmt.Errorf("credential issuer: access token: %w", err)
	}
	refreshToken, refreshExp, err := i.refresh.GenerateToken(input)
	if err != nil {
		return Credentials{}, fmt.Errorf("credential issuer: refresh token: %w", err)
	}

	digest, err := crypto.HashPassword(refreshToken)
	if err != nil {
		return Credentials{}, fmt.Errorf("credential issuer: hash refresh token: %w", err)
	}
	if err := i.users.SetRefreshTokenHash(ctx, user.ID, &digest); err != nil {
		return Credentials{}, fmt.Errorf("credential issuer: store refresh token: %w", err)
	}

	metrics.IssuedCredentials.Inc()

	return Credentials{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyRefresh validates the refresh JWT and matches it against the stored digest.
func (i *DualTokenIssuer) VerifyRefresh(ctx context.Context, refreshToken string) (*models.User, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	claims, err := i.refresh.ValidateToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	user, err := i.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if user.RefreshTokenHash == nil || !crypto.VerifyPassword(*user.RefreshTokenHash, refreshToken) {
		return nil, ErrInvalidRefreshToken
	}
	return user, nil
}

// Revoke clears the stored refresh digest so outstanding refresh tokens stop verifying.
func (i *DualTokenIssuer) Revoke(ctx context.Context, userID string) error {
	if err := i.users.SetRefreshTokenHash(ctx, userID, nil); err != nil {
		return fmt.Errorf("credential issuer: revoke: %w", err)
	}
	return nil
}
