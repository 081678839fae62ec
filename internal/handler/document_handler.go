package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, principal *models.Principal, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error)
	Get(ctx context.Context, principal *models.Principal, id string) (*dto.DocumentDetailResponse, error)
	Create(ctx context.Context, principal *models.Principal, req dto.CreateDocumentRequest, fileName string, fileSize int64, mimeType string, content io.Reader) (*models.Document, error)
	Delete(ctx context.Context, principal *models.Principal, id string) error
	IssueDownloadToken(ctx context.Context, principal *models.Principal, id string) (*dto.DocumentDownloadResponse, error)
	ResolveDownloadToken(ctx context.Context, token string) (*models.Document, *os.File, error)
}

type lockService interface {
	Acquire(ctx context.Context, principal *models.Principal, documentID string) (*models.DocumentLock, error)
	Status(ctx context.Context, documentID string) (*models.DocumentLock, error)
	Release(ctx context.Context, principal *models.Principal, documentID string) error
}

// DocumentHandler exposes document CRUD, locking and downloads.
type DocumentHandler struct {
	documents documentService
	locks     lockService
}

// NewDocumentHandler builds a new handler.
func NewDocumentHandler(documents documentService, locks lockService) *DocumentHandler {
	return &DocumentHandler{documents: documents, locks: locks}
}

// List godoc
// @Summary List documents
// @Description Paginated listing scoped to the caller's visibility
// @Tags Documents
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Filter by status"
// @Param search query string false "Search in title"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	filter := models.DocumentFilter{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Search:   c.Query("search"),
	}
	if status := c.Query("status"); status != "" {
		s := models.DocumentStatus(status)
		filter.Status = &s
	}

	documents, pagination, err := h.documents.List(c.Request.Context(), principalFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, documents, pagination)
}

// Get godoc
// @Summary Get a document
// @Description Returns the document with its signatures and live lock
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	detail, err := h.documents.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Upload a document
// @Description Stores the uploaded file and its metadata
// @Tags Documents
// @Accept mpfd
// @Produce json
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document metadata"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	doc, err := h.documents.Create(c.Request.Context(), principalFromContext(c), req, fileHeader.Filename, fileHeader.Size, mimeType, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Delete godoc
// @Summary Delete a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AcquireLock godoc
// @Summary Acquire an edit lock
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /documents/{id}/lock [post]
func (h *DocumentHandler) AcquireLock(c *gin.Context) {
	lock, err := h.locks.Acquire(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lock, nil)
}

// LockStatus godoc
// @Summary Get lock state
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/lock [get]
func (h *DocumentHandler) LockStatus(c *gin.Context) {
	lock, err := h.locks.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"locked": lock != nil, "lock": lock}, nil)
}

// ReleaseLock godoc
// @Summary Release an edit lock
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/lock [delete]
func (h *DocumentHandler) ReleaseLock(c *gin.Context) {
	if err := h.locks.Release(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// IssueDownload godoc
// @Summary Issue a download token
// @Description Returns a short-lived token and URL for downloading the file
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/download [post]
func (h *DocumentHandler) IssueDownload(c *gin.Context) {
	res, err := h.documents.IssueDownloadToken(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download a document by token
// @Description Streams the file for a previously issued token. No session required.
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /documents/download/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, file, err := h.documents.ResolveDownloadToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	}
	c.DataFromReader(http.StatusOK, doc.FileSize, doc.MimeType, file, headers)
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
