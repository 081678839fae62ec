package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmadocs/ged-api/internal/models"
	"github.com/sigmadocs/ged-api/pkg/export"
)

type auditServiceMock struct {
	logs    []models.AuditLog
	dataset export.Dataset
	err     error
}

func (m *auditServiceMock) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return m.logs, m.err
}

func (m *auditServiceMock) ExportDataset(ctx context.Context, limit int) (export.Dataset, error) {
	return m.dataset, m.err
}

func auditDataset() export.Dataset {
	return export.Dataset{
		Headers: []string{"Timestamp", "User", "Action", "Entity", "Entity ID", "IP"},
		Rows: []map[string]string{{
			"Timestamp": time.Now().Format(time.RFC3339),
			"User":      "u1",
			"Action":    models.AuditActionLogin,
			"Entity":    "session",
			"Entity ID": "",
			"IP":        "10.0.0.1",
		}},
	}
}

func TestAuditHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := "u1"
	mock := &auditServiceMock{logs: []models.AuditLog{{UserID: &userID, Action: models.AuditActionLogin}}}
	handler := NewAuditHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/audit", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "LOGIN")
}

func TestAuditHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuditHandler(&auditServiceMock{dataset: auditDataset()})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/audit/export?format=csv", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Timestamp")
}

func TestAuditHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuditHandler(&auditServiceMock{dataset: auditDataset()})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/audit/export?format=pdf", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestAuditHandlerExportBadFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuditHandler(&auditServiceMock{dataset: auditDataset()})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/audit/export?format=xlsx", nil)
	c.Request = req

	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
