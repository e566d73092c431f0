package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/taskdesk/internal/auth"
	"github.com/charlesng35/taskdesk/internal/services"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
	"github.com/charlesng35/taskdesk/pkg/response"
)

// AuthHandler exposes login, registration, password and invitation flows.
type AuthHandler struct {
	auth    *services.AuthService
	users   *services.UserService
	cookies iauth.CookieOptions
}

func NewAuthHandler(auth *services.AuthService, users *services.UserService, cookies iauth.CookieOptions) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, cookies: cookies}
}

// Unknown or malformed emails both resolve to NotFound in the service.
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,strongpassword"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, creds, err := h.auth.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	iauth.SetCredentialCookies(c.Writer, creds, h.cookies)
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// POST /auth/register?invitation=
func (h *AuthHandler) Register(c *gin.Context) {
	invitation := strings.TrimSpace(c.Query("invitation"))
	if invitation == "" {
		response.Error(c, services.ErrInvalidInvitation)
		return
	}

	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.Register(requestContext(c), services.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: req.Password,
	}, invitation)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	user, ok := refreshedUser(c)
	if !ok {
		return
	}

	creds, err := h.auth.Refresh(requestContext(c), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	iauth.SetCredentialCookies(c.Writer, creds, h.cookies)
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// PATCH /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(requestContext(c), userID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Password changed successfully")
}

// POST /auth/forgot-password
//
// Mail delivery is not wired, so the reset token is returned to the caller.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	token, err := h.auth.ForgotPassword(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Password reset token generated",
		"token":   token,
	})
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(requestContext(c), strings.TrimSpace(req.Token), req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Password reset successfully")
}

// POST /auth/send-invitation
func (h *AuthHandler) SendInvitation(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	url, err := h.auth.GenerateInvitation(requestContext(c), adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(requestContext(c), userID); err != nil {
		response.Error(c, err)
		return
	}

	iauth.ClearCredentialCookies(c.Writer, h.cookies)
	response.Message(c, "Logged out")
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		if apperrors.FromError(err).StatusCode == http.StatusNotFound {
			// Token outlived the account
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
