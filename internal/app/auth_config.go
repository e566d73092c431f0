package app

import (
	"strings"

	"github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/services"
)

// AccessTokenConfig converts AuthConfig into the access signer parameters.
func (c AuthConfig) AccessTokenConfig() auth.JWTConfig {
	ttl := c.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret: c.JWT.AccessSecret,
		Issuer: c.JWT.Issuer,
		Use:    auth.TokenUseAccess,
		TTL:    ttl,
	}
}

// RefreshTokenConfig converts AuthConfig into the refresh signer parameters.
func (c AuthConfig) RefreshTokenConfig() auth.JWTConfig {
	ttl := c.JWT.RefreshTokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}

	return auth.JWTConfig{
		Secret: c.JWT.RefreshSecret,
		Issuer: c.JWT.Issuer,
		Use:    auth.TokenUseRefresh,
		TTL:    ttl,
	}
}

// AuthServiceOptions converts invitation and reset settings into AuthService options.
func (c AuthConfig) AuthServiceOptions() []services.AuthOption {
	return []services.AuthOption{
		services.WithInvitationBaseURL(strings.TrimSpace(c.Invitation.BaseURL)),
		services.WithInvitationTTL(c.Invitation.TTL),
		services.WithPasswordResetTTL(c.PasswordReset.TTL),
	}
}

// BootstrapAdminInput returns the admin to seed, or false when seeding is disabled.
func (c AuthConfig) BootstrapAdminInput() (services.CreateUserInput, bool) {
	email := strings.TrimSpace(c.BootstrapAdmin.Email)
	if email == "" {
		return services.CreateUserInput{}, false
	}
	return services.CreateUserInput{
		Name:     strings.TrimSpace(c.BootstrapAdmin.Name),
		Email:    email,
		Password: c.BootstrapAdmin.Password,
	}, true
}
