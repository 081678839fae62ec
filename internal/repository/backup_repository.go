package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigmadocs/ged-api/internal/models"
)

// BackupRepository provides database access for backup descriptors.
type BackupRepository struct {
	db *sqlx.DB
}

// NewBackupRepository creates a new instance of BackupRepository.
func NewBackupRepository(db *sqlx.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// Create inserts a new backup descriptor.
func (r *BackupRepository) Create(ctx context.Context, backup *models.Backup) error {
	if backup.ID == "" {
		backup.ID = uuid.NewString()
	}
	if backup.CreatedAt.IsZero() {
		backup.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO backups (id, file_name, storage_path, size_bytes, status, created_by, created_at) VALUES (:id, :file_name, :storage_path, :size_bytes, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, backup); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	return nil
}

// UpdateStatus transitions a backup descriptor and records its final size.
func (r *BackupRepository) UpdateStatus(ctx context.Context, id string, status models.BackupStatus, sizeBytes int64) error {
	const query = `UPDATE backups SET status = $2, size_bytes = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, sizeBytes); err != nil {
		return fmt.Errorf("update backup status: %w", err)
	}
	return nil
}

// FindByID returns a backup descriptor.
func (r *BackupRepository) FindByID(ctx context.Context, id string) (*models.Backup, error) {
	const query = `SELECT id, file_name, storage_path, size_bytes, status, created_by, created_at FROM backups WHERE id = $1 LIMIT 1`
	var backup models.Backup
	if err := r.db.GetContext(ctx, &backup, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find backup by id: %w", err)
	}
	return &backup, nil
}

// List returns all backups, newest first.
func (r *BackupRepository) List(ctx context.Context) ([]models.Backup, error) {
	const query = `SELECT id, file_name, storage_path, size_bytes, status, created_by, created_at FROM backups ORDER BY created_at DESC`
	var backups []models.Backup
	if err := r.db.SelectContext(ctx, &backups, query); err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	return backups, nil
}

// Stats aggregates the completed backup inventory.
func (r *BackupRepository) Stats(ctx context.Context) (*models.BackupStats, error) {
	const query = `SELECT COUNT(*) AS total, COALESCE(SUM(size_bytes), 0) AS total_bytes, MAX(created_at) AS last_backup FROM backups WHERE status = 'COMPLETED'`
	var stats models.BackupStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("backup stats: %w", err)
	}
	return &stats, nil
}

// ListOlderThan returns backups created before the cutoff.
func (r *BackupRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.Backup, error) {
	const query = `SELECT id, file_name, storage_path, size_bytes, status, created_by, created_at FROM backups WHERE created_at < $1`
	var backups []models.Backup
	if err := r.db.SelectContext(ctx, &backups, query, cutoff); err != nil {
		return nil, fmt.Errorf("list old backups: %w", err)
	}
	return backups, nil
}

// Delete removes a backup descriptor.
func (r *BackupRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM backups WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}
