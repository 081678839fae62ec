package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type settingsServiceMock struct {
	config *dto.ConfigResponse
	err    error
}

func (m *settingsServiceMock) GetConfig(ctx context.Context) *dto.ConfigResponse {
	return m.config
}

func (m *settingsServiceMock) Update(ctx context.Context, principal *models.Principal, req dto.UpdateSettingsRequest) (*dto.ConfigResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.config, nil
}

func TestSettingsHandlerGetConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &settingsServiceMock{config: &dto.ConfigResponse{
		Settings: map[string]string{"documents.max_file_size_mb": "50"},
		Company:  dto.CompanyInfo{Name: "SigmaDocs"},
	}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/config", nil)
	c.Request = req

	handler.GetConfig(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SigmaDocs")
	assert.Contains(t, w.Body.String(), "documents.max_file_size_mb")
}

func TestSettingsHandlerUpdateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(&settingsServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/config", bytes.NewReader([]byte(`nope`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsHandlerUpdateUnknownKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(&settingsServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "unknown setting key")})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.UpdateSettingsRequest{Settings: map[string]string{"bogus.key": "1"}})
	req, _ := http.NewRequest(http.MethodPut, "/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
