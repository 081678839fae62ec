package dto

import "github.com/sigmadocs/ged-api/internal/models"

// CreateDocumentRequest contains metadata submitted alongside a file upload.
type CreateDocumentRequest struct {
	Title           string                      `form:"title" json:"title"`
	Description     *string                     `form:"description" json:"description"`
	Confidentiality models.ConfidentialityLevel `form:"confidentiality" json:"confidentiality"`
	CategoryID      *string                     `form:"categoryId" json:"categoryId"`
	ExpirationDate  *string                     `form:"expirationDate" json:"expirationDate"`
}

// DocumentDetailResponse enriches a document with its signatures and lock.
type DocumentDetailResponse struct {
	models.Document
	Signatures []models.DocumentSignature `json:"signatures"`
	Lock       *models.DocumentLock       `json:"lock,omitempty"`
}

// DocumentDownloadResponse carries a short-lived download token.
type DocumentDownloadResponse struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
