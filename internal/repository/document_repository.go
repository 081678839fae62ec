package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigmadocs/ged-api/internal/models"
)

const documentColumns = `id, title, description, file_name, file_size, mime_type, storage_path, status, confidentiality, author_id, category_id, expiration_date, created_at, updated_at`

// DocumentRepository provides database access for documents, signatures and locks.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID returns a document by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1 LIMIT 1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// List returns documents matching the filter with a total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	baseQuery := `FROM documents WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("(author_id = $%d OR confidentiality <> 'CONFIDENTIAL')", len(args)+1))
		args = append(args, *filter.AuthorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(file_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", documentColumns, baseQuery, pageSize, offset)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return docs, total, nil
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	const query = `INSERT INTO documents (id, title, description, file_name, file_size, mime_type, storage_path, status, confidentiality, author_id, category_id, expiration_date, created_at, updated_at) VALUES (:id, :title, :description, :file_name, :file_size, :mime_type, :storage_path, :status, :confidentiality, :author_id, :category_id, :expiration_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Delete removes a document row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// ListSignatures returns signatures for a document in signing order.
func (r *DocumentRepository) ListSignatures(ctx context.Context, documentID string) ([]models.DocumentSignature, error) {
	const query = `SELECT id, document_id, signer_id, signer_name, signed_at, digest FROM document_signatures WHERE document_id = $1 ORDER BY signed_at ASC`
	var sigs []models.DocumentSignature
	if err := r.db.SelectContext(ctx, &sigs, query, documentID); err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	return sigs, nil
}

// ListExpiringBetween returns active documents whose expiration falls inside the window.
func (r *DocumentRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE status = 'ACTIVE' AND expiration_date IS NOT NULL AND expiration_date >= $1 AND expiration_date <= $2 ORDER BY expiration_date ASC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, from, to); err != nil {
		return nil, fmt.Errorf("list expiring documents: %w", err)
	}
	return docs, nil
}

// FindLock returns the current lock for a document, if any.
func (r *DocumentRepository) FindLock(ctx context.Context, documentID string) (*models.DocumentLock, error) {
	const query = `SELECT id, document_id, holder_id, holder_name, acquired_at, expires_at FROM document_locks WHERE document_id = $1 LIMIT 1`
	var lock models.DocumentLock
	if err := r.db.GetContext(ctx, &lock, query, documentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document lock: %w", err)
	}
	return &lock, nil
}

// CreateLock inserts a lock row. The unique constraint on document_id rejects
// concurrent acquisition.
func (r *DocumentRepository) CreateLock(ctx context.Context, lock *models.DocumentLock) error {
	if lock.ID == "" {
		lock.ID = uuid.NewString()
	}
	if lock.AcquiredAt.IsZero() {
		lock.AcquiredAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_locks (id, document_id, holder_id, holder_name, acquired_at, expires_at) VALUES (:id, :document_id, :holder_id, :holder_name, :acquired_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lock); err != nil {
		return fmt.Errorf("create document lock: %w", err)
	}
	return nil
}

// DeleteLock removes a lock row by id.
func (r *DocumentRepository) DeleteLock(ctx context.Context, lockID string) error {
	const query = `DELETE FROM document_locks WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, lockID); err != nil {
		return fmt.Errorf("delete document lock: %w", err)
	}
	return nil
}

// DeleteExpiredLocks prunes locks past their TTL.
func (r *DocumentRepository) DeleteExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM document_locks WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired locks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
