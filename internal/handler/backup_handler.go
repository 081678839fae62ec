package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	"github.com/sigmadocs/ged-api/pkg/response"
)

type backupService interface {
	Create(ctx context.Context, principal *models.Principal) (*models.Backup, error)
	List(ctx context.Context) (*dto.BackupListResponse, error)
	SignedURL(ctx context.Context, id string) (*dto.BackupDownloadResponse, error)
	ResolveDownload(ctx context.Context, token string) (*models.Backup, *os.File, error)
	Restore(ctx context.Context, principal *models.Principal, id string) error
	Prune(ctx context.Context) (int, error)
}

// BackupHandler exposes backup administration endpoints.
type BackupHandler struct {
	service backupService
}

// NewBackupHandler builds a new handler.
func NewBackupHandler(service backupService) *BackupHandler {
	return &BackupHandler{service: service}
}

// Create godoc
// @Summary Create a backup
// @Description Snapshots the document store into a compressed archive
// @Tags Backups
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /backup [post]
func (h *BackupHandler) Create(c *gin.Context) {
	backup, err := h.service.Create(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, backup)
}

// List godoc
// @Summary List backups
// @Tags Backups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backup [get]
func (h *BackupHandler) List(c *gin.Context) {
	res, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// SignedURL godoc
// @Summary Issue a signed download URL
// @Tags Backups
// @Produce json
// @Param id path string true "Backup ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /backup/{id}/download [post]
func (h *BackupHandler) SignedURL(c *gin.Context) {
	res, err := h.service.SignedURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download a backup archive by signed token
// @Tags Backups
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /backup/download/{token} [get]
func (h *BackupHandler) Download(c *gin.Context) {
	backup, file, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", backup.FileName),
	}
	c.DataFromReader(http.StatusOK, backup.SizeBytes, "application/gzip", file, headers)
}

// Restore godoc
// @Summary Restore from a backup
// @Description Extracts the archive back into the document store
// @Tags Backups
// @Produce json
// @Param id path string true "Backup ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /backup/{id}/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Restore(c.Request.Context(), principalFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RestoreResponse{BackupID: id, Status: "RESTORED"}, nil)
}

// Prune godoc
// @Summary Prune old backups
// @Description Removes archives older than the retention window
// @Tags Backups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backup [delete]
func (h *BackupHandler) Prune(c *gin.Context) {
	removed, err := h.service.Prune(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}
