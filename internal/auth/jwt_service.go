package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL defines the fallback validity period for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL defines the fallback validity period for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenUse tags a JWT so an access token cannot be replayed as a refresh token and vice versa.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret string
	Issuer string
	Use    TokenUse
	TTL    time.Duration
	Clock  func() time.Time
}

// Claims represents the custom claims embedded in issued JWTs.
type Claims struct {
	UserID string   `json:"uid"`
	Role   string   `json:"role"`
	Use    TokenUse `json:"use"`
	jwt.RegisteredClaims
}

// TokenInput holds the principal a token is issued for.
type TokenInput struct {
	UserID string
	Role   string
}

// JWTService issues and validates one kind of JSON Web Token under a single secret.
type JWTService struct {
	secret []byte
	issuer string
	use    TokenUse
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	use := cfg.Use
	if use == "" {
		use = TokenUseAccess
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
		if use == TokenUseRefresh {
			ttl = DefaultRefreshTokenTTL
		}
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		use:    use,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TTL returns the lifetime of tokens issued by the service.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a signed JWT for the principal and returns its expiry.
func (s *JWTService) GenerateToken(input TokenInput) (string, time.Time, error) {
	if input.UserID == "" {
		return "", time.Time{}, errors.New("jwt: user id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		UserID: input.UserID,
		Role:   input.Role,
		Use:    s.use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   input.UserID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateToken parses and validates a signed JWT, returning the application claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.Use != s.use {
		return nil, errors.New("jwt: unexpected token use")
	}

	if claims.UserID == "" {
		return nil, errors.New("jwt: missing user id claim")
	}

	return &claims, nil
}
