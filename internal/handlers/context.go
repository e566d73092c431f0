package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/middleware"
	"github.com/charlesng35/taskdesk/internal/models"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
	"github.com/charlesng35/taskdesk/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated principal, writing a 401 when absent.
func currentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.CtxUserIDKey)
	if id == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return "", false
	}
	return id, true
}

// refreshedUser returns the user verified by the refresh middleware.
func refreshedUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}
	return user, true
}
