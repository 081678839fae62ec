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

type settingsService interface {
	GetConfig(ctx context.Context) *dto.ConfigResponse
	Update(ctx context.Context, principal *models.Principal, req dto.UpdateSettingsRequest) (*dto.ConfigResponse, error)
}

// SettingsHandler exposes the public config endpoint and admin updates.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetConfig godoc
// @Summary Get application configuration
// @Description Returns defaults merged with stored overrides. Public.
// @Tags Configuration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /config [get]
func (h *SettingsHandler) GetConfig(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GetConfig(c.Request.Context()), nil)
}

// Update godoc
// @Summary Update configuration
// @Description Persists setting overrides. Admin only.
// @Tags Configuration
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /config [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	res, err := h.service.Update(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
