package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/storage"
)

type mockBackupRepo struct {
	backups map[string]*models.Backup
	seq     int
}

func newMockBackupRepo() *mockBackupRepo {
	return &mockBackupRepo{backups: map[string]*models.Backup{}}
}

func (m *mockBackupRepo) Create(ctx context.Context, backup *models.Backup) error {
	m.seq++
	backup.ID = fmt.Sprintf("b%d", m.seq)
	backup.CreatedAt = time.Now().UTC()
	clone := *backup
	m.backups[backup.ID] = &clone
	return nil
}

func (m *mockBackupRepo) UpdateStatus(ctx context.Context, id string, status models.BackupStatus, sizeBytes int64) error {
	backup, ok := m.backups[id]
	if !ok {
		return sql.ErrNoRows
	}
	backup.Status = status
	backup.SizeBytes = sizeBytes
	return nil
}

func (m *mockBackupRepo) FindByID(ctx context.Context, id string) (*models.Backup, error) {
	backup, ok := m.backups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *backup
	return &clone, nil
}

func (m *mockBackupRepo) List(ctx context.Context) ([]models.Backup, error) {
	out := make([]models.Backup, 0, len(m.backups))
	for _, backup := range m.backups {
		out = append(out, *backup)
	}
	return out, nil
}

func (m *mockBackupRepo) Stats(ctx context.Context) (*models.BackupStats, error) {
	stats := &models.BackupStats{Total: len(m.backups)}
	for _, backup := range m.backups {
		stats.TotalBytes += backup.SizeBytes
	}
	return stats, nil
}

func (m *mockBackupRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.Backup, error) {
	var out []models.Backup
	for _, backup := range m.backups {
		if backup.CreatedAt.Before(cutoff) {
			out = append(out, *backup)
		}
	}
	return out, nil
}

func (m *mockBackupRepo) Delete(ctx context.Context, id string) error {
	delete(m.backups, id)
	return nil
}

func newBackupFixture(t *testing.T, repo *mockBackupRepo) (*BackupService, string) {
	t.Helper()
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "contrato.pdf"), []byte("%PDF-1.4 test"), 0o644))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewBackupService(repo, store, signer, &mockAudit{}, zap.NewNop(), BackupsConfig{
		APIPrefix:    "/api",
		DocumentsDir: docsDir,
		Retention:    30 * 24 * time.Hour,
	})
	return svc, docsDir
}

func TestBackupCreateWritesArchive(t *testing.T) {
	repo := newMockBackupRepo()
	svc, _ := newBackupFixture(t, repo)

	backup, err := svc.Create(context.Background(), &models.Principal{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusCompleted, backup.Status)
	assert.Greater(t, backup.SizeBytes, int64(0))
	assert.True(t, strings.HasSuffix(backup.FileName, ".tar.gz"))

	stored, err := repo.FindByID(context.Background(), backup.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupStatusCompleted, stored.Status)
}

func TestBackupSignedURLOnlyWhenCompleted(t *testing.T) {
	repo := newMockBackupRepo()
	svc, _ := newBackupFixture(t, repo)

	pending := &models.Backup{FileName: "backup-x.tar.gz", StoragePath: "archives/backup-x.tar.gz", Status: models.BackupStatusPending}
	require.NoError(t, repo.Create(context.Background(), pending))

	_, err := svc.SignedURL(context.Background(), pending.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	backup, err := svc.Create(context.Background(), nil)
	require.NoError(t, err)

	res, err := svc.SignedURL(context.Background(), backup.ID)
	require.NoError(t, err)
	assert.Contains(t, res.URL, "/api/backup/download/")
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	repo := newMockBackupRepo()
	svc, docsDir := newBackupFixture(t, repo)

	backup, err := svc.Create(context.Background(), &models.Principal{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	target := filepath.Join(docsDir, "contrato.pdf")
	require.NoError(t, os.Remove(target))

	err = svc.Restore(context.Background(), &models.Principal{UserID: "admin", Role: models.RoleAdmin}, backup.ID)
	require.NoError(t, err)

	restored, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(restored))
}

func TestBackupRestoreUnknown(t *testing.T) {
	repo := newMockBackupRepo()
	svc, _ := newBackupFixture(t, repo)

	err := svc.Restore(context.Background(), &models.Principal{UserID: "admin"}, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBackupPruneRemovesOld(t *testing.T) {
	repo := newMockBackupRepo()
	svc, _ := newBackupFixture(t, repo)

	backup, err := svc.Create(context.Background(), nil)
	require.NoError(t, err)
	repo.backups[backup.ID].CreatedAt = time.Now().Add(-60 * 24 * time.Hour)

	removed, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = repo.FindByID(context.Background(), backup.ID)
	assert.Error(t, err)
}

func TestBackupResolveDownloadBadToken(t *testing.T) {
	repo := newMockBackupRepo()
	svc, _ := newBackupFixture(t, repo)

	_, _, err := svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
