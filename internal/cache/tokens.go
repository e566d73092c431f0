package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/taskdesk/pkg/metrics"
)

// TokenPurpose distinguishes what an ephemeral token may be redeemed for.
type TokenPurpose string

const (
	PurposeInvitation     TokenPurpose = "invitation"
	PurposeForgotPassword TokenPurpose = "forgot_password"
)

const (
	tokenKeyPrefix = "token:"
	indexKeyPrefix = "token-index:"
)

// TokenRecord is the value associated with an ephemeral token.
type TokenRecord struct {
	Email   string       `json:"email"`
	Purpose TokenPurpose `json:"purpose"`
}

// TokenCache maps single-use tokens to {email, purpose} and keeps a per purpose
// email index pointing back at the most recent token.
type TokenCache struct {
	store Store
}

// NewTokenCache wraps a Store.
func NewTokenCache(store Store) *TokenCache {
	return &TokenCache{store: store}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

func indexKey(email string, purpose TokenPurpose) string {
	return indexKeyPrefix + string(purpose) + ":" + strings.ToLower(strings.TrimSpace(email))
}

// SetToken stores the token and its index entry with the same ttl.
func (c *TokenCache) SetToken(ctx context.Context, token, email string, purpose TokenPurpose, ttl time.Duration) error {
	if c == nil || c.store == nil {
		return errors.New("token cache: store not configured")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token cache: token is required")
	}
	if ttl <= 0 {
		return errors.New("token cache: ttl must be positive")
	}

	payload, err := json.Marshal(TokenRecord{Email: email, Purpose: purpose})
	if err != nil {
		return fmt.Errorf("token cache: encode record: %w", err)
	}

	if err := c.store.Set(ctx, tokenKey(token), payload, ttl); err != nil {
		observe("set", "error")
		return fmt.Errorf("token cache: store token: %w", err)
	}
	if err := c.store.Set(ctx, indexKey(email, purpose), []byte(token), ttl); err != nil {
		observe("set", "error")
		return fmt.Errorf("token cache: store index: %w", err)
	}
	observe("set", "ok")
	return nil
}

// GetToken returns the record for token, or nil when it is missing or expired.
func (c *TokenCache) GetToken(ctx context.Context, token string) (*TokenRecord, error) {
	if c == nil || c.store == nil {
		return nil, errors.New("token cache: store not configured")
	}
	if strings.TrimSpace(token) == "" {
		observe("get", "miss")
		return nil, nil
	}

	raw, ok, err := c.store.Get(ctx, tokenKey(token))
	if err != nil {
		observe("get", "error")
		return nil, fmt.Errorf("token cache: load token: %w", err)
	}
	if !ok {
		observe("get", "miss")
		return nil, nil
	}

	var record TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		observe("get", "error")
		return nil, fmt.Errorf("token cache: decode record: %w", err)
	}
	observe("get", "hit")
	return &record, nil
}

// DeleteToken removes the token. The index entry goes too when it still points at this token.
func (c *TokenCache) DeleteToken(ctx context.Context, token string) error {
	record, err := c.GetToken(ctx, token)
	if err != nil {
		return err
	}

	keys := []string{tokenKey(token)}
	if record != nil {
		current, ok, err := c.store.Get(ctx, indexKey(record.Email, record.Purpose))
		if err != nil {
			observe("delete", "error")
			return fmt.Errorf("token cache: load index: %w", err)
		}
		if ok && string(current) == token {
			keys = append(keys, indexKey(record.Email, record.Purpose))
		}
	}

	if err := c.store.Delete(ctx, keys...); err != nil {
		observe("delete", "error")
		return fmt.Errorf("token cache: delete token: %w", err)
	}
	observe("delete", "ok")
	return nil
}

// TokenByEmail returns the live token issued for email and purpose, or "" when none.
func (c *TokenCache) TokenByEmail(ctx context.Context, email string, purpose TokenPurpose) (string, error) {
	if c == nil || c.store == nil {
		return "", errors.New("token cache: store not configured")
	}

	raw, ok, err := c.store.Get(ctx, indexKey(email, purpose))
	if err != nil {
		observe("lookup", "error")
		return "", fmt.Errorf("token cache: load index: %w", err)
	}
	if !ok {
		observe("lookup", "miss")
		return "", nil
	}

	token := string(raw)
	record, err := c.GetToken(ctx, token)
	if err != nil {
		return "", err
	}
	if record == nil || record.Purpose != purpose {
		// stale index
		if err := c.store.Delete(ctx, indexKey(email, purpose)); err != nil {
			return "", fmt.Errorf("token cache: delete stale index: %w", err)
		}
		observe("lookup", "miss")
		return "", nil
	}
	observe("lookup", "hit")
	return token, nil
}

func observe(operation, result string) {
	metrics.TokenCacheOperations.WithLabelValues(operation, result).Inc()
}
