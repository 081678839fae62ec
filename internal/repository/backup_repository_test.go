package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmadocs/ged-api/internal/models"
)

func TestBackupCreateAndUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	mock.ExpectExec("INSERT INTO backups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE backups SET status = $2, size_bytes = $3 WHERE id = $1")).
		WithArgs("b1", string(models.BackupStatusCompleted), int64(4096)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	createdBy := "u1"
	backup := &models.Backup{ID: "b1", FileName: "backup-20260828.tar.gz", StoragePath: "backups/b1.tar.gz", Status: models.BackupStatusPending, CreatedBy: &createdBy}
	require.NoError(t, repo.Create(context.Background(), backup))
	require.NoError(t, repo.UpdateStatus(context.Background(), "b1", models.BackupStatusCompleted, 4096))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackupStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	last := time.Now()
	rows := sqlmock.NewRows([]string{"total", "total_bytes", "last_backup"}).AddRow(3, int64(12288), last)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total, COALESCE(SUM(size_bytes), 0) AS total_bytes, MAX(created_at) AS last_backup FROM backups WHERE status = 'COMPLETED'")).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, int64(12288), stats.TotalBytes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOlderThan(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "file_name", "storage_path", "size_bytes", "status", "created_by", "created_at"}).
		AddRow("b1", "old.tar.gz", "backups/b1.tar.gz", int64(100), string(models.BackupStatusCompleted), "u1", cutoff.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, file_name, storage_path, size_bytes, status, created_by, created_at FROM backups WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnRows(rows)

	backups, err := repo.ListOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
