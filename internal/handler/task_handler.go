package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/response"
)

type taskService interface {
	List(ctx context.Context) ([]models.ScheduledTask, error)
	Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateTaskRequest) (*models.ScheduledTask, error)
	ProcessDue(ctx context.Context, principal *models.Principal) ([]models.TaskRunResult, error)
	Run(ctx context.Context, principal *models.Principal, id string) (*models.TaskRunResult, error)
}

// TaskHandler exposes scheduled-task administration.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler builds a new handler.
func NewTaskHandler(service taskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List godoc
// @Summary List scheduled tasks
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Update godoc
// @Summary Update a scheduled task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.UpdateTaskRequest true "Task payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Update(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Execute godoc
// @Summary Execute tasks by action
// @Description action "process" runs all due tasks, action "run" executes one task by id. Accepts the cron secret.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.RunTasksRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Execute(c *gin.Context) {
	var req dto.RunTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	switch req.Action {
	case "process":
		results, err := h.service.ProcessDue(c.Request.Context(), principalFromContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, results, nil)
	case "run":
		if req.ID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required for action run"))
			return
		}
		result, err := h.service.Run(c.Request.Context(), principalFromContext(c), req.ID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action"))
	}
}

// RunDue godoc
// @Summary Run all due tasks
// @Description Executes every enabled task whose interval elapsed. Accepts the cron secret.
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/run [post]
func (h *TaskHandler) RunDue(c *gin.Context) {
	results, err := h.service.ProcessDue(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// RunOne godoc
// @Summary Run one task immediately
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/run [post]
func (h *TaskHandler) RunOne(c *gin.Context) {
	result, err := h.service.Run(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
