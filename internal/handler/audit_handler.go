package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/export"
	"github.com/sigmadocs/ged-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
	ExportDataset(ctx context.Context, limit int) (export.Dataset, error)
}

// AuditHandler exposes the audit trail and its exports.
type AuditHandler struct {
	service auditService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{
		service: service,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	logs, err := h.service.List(c.Request.Context(), parseIntQuery(c, "limit", 500))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Export godoc
// @Summary Export the audit trail
// @Description Renders the audit log as CSV or PDF
// @Tags Audit
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /audit/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	dataset, err := h.service.ExportDataset(c.Request.Context(), parseIntQuery(c, "limit", 500))
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	stamp := time.Now().Format("2006-01-02")

	switch format {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-"+stamp+".csv"))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, "Audit Trail")
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-"+stamp+".pdf"))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
