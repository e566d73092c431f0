package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/internal/services"
	"github.com/charlesng35/taskdesk/pkg/response"
)

// TaskHandler serves /tasks.
type TaskHandler struct {
	service *services.TaskService
}

type createTaskRequest struct {
	Name       string  `json:"name"`
	CategoryID string  `json:"categoryId" validate:"required"`
	Price      float64 `json:"price"`
}

type updateTaskRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.service.Create(requestContext(c), services.CreateTaskInput{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Price:      req.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.service.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}

// GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// PATCH /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.service.Update(requestContext(c), c.Param("id"), services.UpdateTaskInput{
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Task deleted successfully")
}
