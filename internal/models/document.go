package models

import "time"

// DocumentStatus tracks a document through its lifecycle.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusActive    DocumentStatus = "ACTIVE"
	DocumentStatusArchived  DocumentStatus = "ARCHIVED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// ConfidentialityLevel bounds who may read a document.
type ConfidentialityLevel string

const (
	ConfidentialityPublic       ConfidentialityLevel = "PUBLIC"
	ConfidentialityInternal     ConfidentialityLevel = "INTERNAL"
	ConfidentialityConfidential ConfidentialityLevel = "CONFIDENTIAL"
)

// Document represents a managed file with metadata.
type Document struct {
	ID              string               `db:"id" json:"id"`
	Title           string               `db:"title" json:"title"`
	Description     *string              `db:"description" json:"description,omitempty"`
	FileName        string               `db:"file_name" json:"file_name"`
	FileSize        int64                `db:"file_size" json:"file_size"`
	MimeType        string               `db:"mime_type" json:"mime_type"`
	StoragePath     string               `db:"storage_path" json:"-"`
	Status          DocumentStatus       `db:"status" json:"status"`
	Confidentiality ConfidentialityLevel `db:"confidentiality" json:"confidentiality"`
	AuthorID        string               `db:"author_id" json:"author_id"`
	CategoryID      *string              `db:"category_id" json:"category_id,omitempty"`
	ExpirationDate  *time.Time           `db:"expiration_date" json:"expiration_date,omitempty"`
	CreatedAt       time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at" json:"updated_at"`
}

// DocumentSignature records one digital signature applied to a document.
type DocumentSignature struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	SignerID   string    `db:"signer_id" json:"signer_id"`
	SignerName string    `db:"signer_name" json:"signer_name"`
	SignedAt   time.Time `db:"signed_at" json:"signed_at"`
	Digest     string    `db:"digest" json:"digest"`
}

// DocumentFilter captures listing criteria.
type DocumentFilter struct {
	AuthorID *string
	Status   *DocumentStatus
	Search   string
	Page     int
	PageSize int
}

// DocumentLock represents an advisory edit lock on a document. A lock expires
// after its TTL even if never released.
type DocumentLock struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	HolderID   string    `db:"holder_id" json:"holder_id"`
	HolderName string    `db:"holder_name" json:"holder_name"`
	AcquiredAt time.Time `db:"acquired_at" json:"acquired_at"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the lock has outlived its TTL.
func (l *DocumentLock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
