package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type documentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	Create(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	ListSignatures(ctx context.Context, documentID string) ([]models.DocumentSignature, error)
	FindLock(ctx context.Context, documentID string) (*models.DocumentLock, error)
}

type documentStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// DocumentsConfig tunes document storage and download token issuance.
type DocumentsConfig struct {
	APIPrefix        string
	DownloadSecret   string
	DownloadTokenTTL time.Duration
	MaxFileSizeBytes int64
}

// downloadClaims is the payload of a short-lived download token.
type downloadClaims struct {
	DocumentID string `json:"document_id"`
	jwt.RegisteredClaims
}

// DocumentService provides document use cases: listing with confidentiality
// scoping, metadata reads, uploads, deletion and signed downloads.
type DocumentService struct {
	repo      documentRepository
	storage   documentStorage
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       DocumentsConfig
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo documentRepository, storage documentStorage, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cfg DocumentsConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.DownloadTokenTTL <= 0 {
		cfg.DownloadTokenTTL = 5 * time.Minute
	}
	return &DocumentService{repo: repo, storage: storage, audit: audit, validator: validate, logger: logger, cfg: cfg}
}

// List returns documents visible to the principal. Non-admin callers never see
// confidential documents authored by someone else.
func (s *DocumentService) List(ctx context.Context, principal *models.Principal, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	if !principal.IsAdmin() {
		filter.AuthorID = &principal.UserID
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return docs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one document with its signatures and current lock. Existence is
// checked before access: an unknown ID is 404 even for callers who could not
// have read it.
func (s *DocumentService) Get(ctx context.Context, principal *models.Principal, id string) (*dto.DocumentDetailResponse, error) {
	doc, err := s.loadReadable(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	sigs, err := s.repo.ListSignatures(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signatures")
	}

	var lock *models.DocumentLock
	if found, err := s.repo.FindLock(ctx, doc.ID); err == nil {
		if !found.Expired(time.Now().UTC()) {
			lock = found
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionDocumentRead,
		EntityType: "document",
		EntityID:   &doc.ID,
	})

	return &dto.DocumentDetailResponse{Document: *doc, Signatures: sigs, Lock: lock}, nil
}

// Create stores the uploaded content and inserts the document record.
func (s *DocumentService) Create(ctx context.Context, principal *models.Principal, req dto.CreateDocumentRequest, fileName string, fileSize int64, mimeType string, content io.Reader) (*models.Document, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if s.cfg.MaxFileSizeBytes > 0 && fileSize > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds maximum allowed size")
	}

	confidentiality := req.Confidentiality
	if confidentiality == "" {
		confidentiality = models.ConfidentialityInternal
	}
	switch confidentiality {
	case models.ConfidentialityPublic, models.ConfidentialityInternal, models.ConfidentialityConfidential:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown confidentiality level")
	}

	var expiration *time.Time
	if req.ExpirationDate != nil && *req.ExpirationDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ExpirationDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiration date must be YYYY-MM-DD")
		}
		expiration = &parsed
	}

	doc := &models.Document{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		FileName:        filepath.Base(fileName),
		FileSize:        fileSize,
		MimeType:        mimeType,
		Status:          models.DocumentStatusActive,
		Confidentiality: confidentiality,
		AuthorID:        principal.UserID,
		CategoryID:      req.CategoryID,
		ExpirationDate:  expiration,
	}

	relPath := fmt.Sprintf("documents/%s%s", doc.ID, filepath.Ext(doc.FileName))
	storedPath, err := s.storage.SaveStream(relPath, content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	doc.StoragePath = storedPath

	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(storedPath); delErr != nil {
			s.logger.Warn("failed to remove orphaned file", zap.String("path", storedPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionDocumentCreate,
		EntityType: "document",
		EntityID:   &doc.ID,
	})

	return doc, nil
}

// Delete removes a document. Only the author or an admin may delete; an active
// lock held by someone else blocks deletion.
func (s *DocumentService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if doc.AuthorID != principal.UserID && !principal.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin may delete this document")
	}

	if lock, err := s.repo.FindLock(ctx, doc.ID); err == nil {
		if !lock.Expired(time.Now().UTC()) && lock.HolderID != principal.UserID {
			return appErrors.Clone(appErrors.ErrLockHeld, "")
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
	}

	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}

	if err := s.storage.Delete(doc.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", doc.StoragePath), zap.Error(err))
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionDocumentDelete,
		EntityType: "document",
		EntityID:   &doc.ID,
	})

	return nil
}

// IssueDownloadToken returns a short-lived signed token for the document.
func (s *DocumentService) IssueDownloadToken(ctx context.Context, principal *models.Principal, id string) (*dto.DocumentDownloadResponse, error) {
	doc, err := s.loadReadable(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.DownloadTokenTTL)
	claims := &downloadClaims{
		DocumentID: doc.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.DownloadSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}

	return &dto.DocumentDownloadResponse{
		Token:     signed,
		URL:       fmt.Sprintf("%s/documents/download/%s", prefix, signed),
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

// ResolveDownloadToken validates a token and opens the referenced file.
func (s *DocumentService) ResolveDownloadToken(ctx context.Context, token string) (*models.Document, *os.File, error) {
	parsed, err := jwt.ParseWithClaims(token, &downloadClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.DownloadSecret), nil
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	claims, ok := parsed.Claims.(*downloadClaims)
	if !ok || !parsed.Valid {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token claims")
	}

	doc, err := s.repo.FindByID(ctx, claims.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	file, err := s.storage.Open(doc.StoragePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored file")
	}

	return doc, file, nil
}

// loadReadable fetches a document and enforces read access. Not-found is
// reported before any permission failure.
func (s *DocumentService) loadReadable(ctx context.Context, principal *models.Principal, id string) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if doc.Confidentiality == models.ConfidentialityConfidential && doc.AuthorID != principal.UserID && !principal.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document is confidential")
	}

	return doc, nil
}
