package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler reports service and database health.
type HealthHandler struct {
	db      *sqlx.DB
	version string
}

// NewHealthHandler builds a new handler.
func NewHealthHandler(db *sqlx.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Check godoc
// @Summary Health check
// @Description Verifies database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	payload := gin.H{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		var one int
		if err := h.db.GetContext(c.Request.Context(), &one, "SELECT 1"); err != nil {
			payload["status"] = "degraded"
			payload["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, payload)
			return
		}
		payload["database"] = "ok"
	}

	c.JSON(http.StatusOK, payload)
}
