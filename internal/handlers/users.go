package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/services"
	"github.com/charlesng35/taskdesk/pkg/response"
)

type UserHandler struct {
	service *services.UserService
}

// Role is checked by the service after the self-change rule.
type updateRoleRequest struct {
	Role string `json:"role"`
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GET /users
func (h *UserHandler) List(c *gin.Context) {
	result, err := h.service.List(requestContext(c), services.ListUsersOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Users, &response.Meta{
		Page:       result.Page,
		PerPage:    result.PerPage,
		Total:      int(result.Total),
		TotalPages: result.TotalPages(),
	})
}

// PATCH /users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	currentID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateRoleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	message, err := h.service.UpdateRole(requestContext(c), currentID, c.Param("id"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, message)
}
