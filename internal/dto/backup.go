package dto

import "github.com/sigmadocs/ged-api/internal/models"

// BackupListResponse pairs the backup inventory with aggregate stats.
type BackupListResponse struct {
	Backups []models.Backup    `json:"backups"`
	Stats   models.BackupStats `json:"stats"`
}

// BackupDownloadResponse carries a signed URL for one archive.
type BackupDownloadResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// RestoreResponse acknowledges a restore request.
type RestoreResponse struct {
	BackupID string `json:"backup_id"`
	Status   string `json:"status"`
}
