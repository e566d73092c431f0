package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/services"
	"github.com/charlesng35/taskdesk/pkg/response"
)

// CategoryHandler serves /category-task.
type CategoryHandler struct {
	service *services.CategoryService
}

// Name length is enforced by the service so its messages reach the client verbatim.
type categoryRequest struct {
	Name string `json:"name"`
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// POST /category-task
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.service.Create(requestContext(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, category)
}

// GET /category-task
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories)
}

// GET /category-task/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, category)
}

// PATCH /category-task/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.service.Update(requestContext(c), c.Param("id"), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, category)
}

// DELETE /category-task/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Category deleted successfully")
}
