package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/models"
	"github.com/sigmadocs/ged-api/pkg/response"
)

type stateService interface {
	List(ctx context.Context) ([]models.State, error)
}

// StateHandler serves the Brazilian states reference data.
type StateHandler struct {
	service stateService
}

// NewStateHandler builds a new handler.
func NewStateHandler(service stateService) *StateHandler {
	return &StateHandler{service: service}
}

// List godoc
// @Summary List Brazilian states
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /states [get]
func (h *StateHandler) List(c *gin.Context) {
	states, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, states, nil)
}
