package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/taskdesk/pkg/crypto"
)

const secretBytes = 48

// ApplyRuntimeDefaults ensures signing secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
// Generated secrets do not survive a restart, so outstanding credentials and invitations become invalid.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	secrets := []struct {
		key   string
		value *string
	}{
		{"auth.jwt.access_secret", &cfg.Auth.JWT.AccessSecret},
		{"auth.jwt.refresh_secret", &cfg.Auth.JWT.RefreshSecret},
		{"auth.invitation.secret", &cfg.Auth.Invitation.Secret},
	}

	for _, s := range secrets {
		if strings.TrimSpace(*s.value) != "" {
			continue
		}
		secret, err := crypto.GenerateToken(secretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", s.key, err)
		}
		*s.value = secret
		generated[s.key] = true
	}

	return generated, nil
}

// Validate reports configuration that would leave the service insecure or unusable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	jwt := c.Auth.JWT
	if strings.TrimSpace(jwt.AccessSecret) == "" || strings.TrimSpace(jwt.RefreshSecret) == "" {
		return fmt.Errorf("auth.jwt.access_secret and auth.jwt.refresh_secret must be configured")
	}
	if jwt.AccessSecret == jwt.RefreshSecret {
		return fmt.Errorf("auth.jwt.access_secret and auth.jwt.refresh_secret must differ")
	}
	if strings.TrimSpace(c.Auth.Invitation.Secret) == "" {
		return fmt.Errorf("auth.invitation.secret must be configured")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}
