package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/models"
	"github.com/sigmadocs/ged-api/pkg/response"
)

type alertService interface {
	Process(ctx context.Context) (*models.AlertProcessResult, error)
}

// AlertHandler exposes expiration-alert processing.
type AlertHandler struct {
	service alertService
}

// NewAlertHandler builds a new handler.
func NewAlertHandler(service alertService) *AlertHandler {
	return &AlertHandler{service: service}
}

// Process godoc
// @Summary Process expiration alerts
// @Description Scans for expiring and expired documents, creates alerts and emails authors. Accepts the cron secret.
// @Tags Alerts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts/process [post]
func (h *AlertHandler) Process(c *gin.Context) {
	result, err := h.service.Process(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
