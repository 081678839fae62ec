package models

import "time"

// BackupStatus tracks backup archive creation.
type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "PENDING"
	BackupStatusCompleted BackupStatus = "COMPLETED"
	BackupStatusFailed    BackupStatus = "FAILED"
)

// Backup describes one backup archive on local storage.
type Backup struct {
	ID          string       `db:"id" json:"id"`
	FileName    string       `db:"file_name" json:"file_name"`
	StoragePath string       `db:"storage_path" json:"-"`
	SizeBytes   int64        `db:"size_bytes" json:"size_bytes"`
	Status      BackupStatus `db:"status" json:"status"`
	CreatedBy   *string      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// BackupStats aggregates the backup inventory for the admin listing.
type BackupStats struct {
	Total      int        `db:"total" json:"total"`
	TotalBytes int64      `db:"total_bytes" json:"total_bytes"`
	LastBackup *time.Time `db:"last_backup" json:"last_backup,omitempty"`
}
