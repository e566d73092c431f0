package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/taskdesk/internal/auth"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
	"github.com/charlesng35/taskdesk/pkg/logger"
	"github.com/charlesng35/taskdesk/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxRoleKey   = "userRole"
	CtxUserKey   = "authUser"
)

// Auth enforces access-token authentication. The token is read from the
// Authentication cookie, falling back to an Authorization: Bearer header.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)

		c.Next()
	}
}

// RefreshAuth authenticates a request by its Refresh cookie and stores the
// verified user for the handler.
func RefreshAuth(issuer iauth.CredentialIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(iauth.RefreshCookieName)
		if err != nil || strings.TrimSpace(token) == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := issuer.VerifyRefresh(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, iauth.ErrInvalidRefreshToken) {
				response.Error(c, apperrors.ErrUnauthorized)
			} else {
				logger.WithModule("http").Error("refresh verification failed", zap.Error(err))
				response.Error(c, err)
			}
			c.Abort()
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxRoleKey, string(user.Role))

		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(iauth.AccessCookieName); err == nil {
		if cookie = strings.TrimSpace(cookie); cookie != "" {
			return cookie
		}
	}

	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}
