package service

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/storage"
)

type backupRepository interface {
	Create(ctx context.Context, backup *models.Backup) error
	UpdateStatus(ctx context.Context, id string, status models.BackupStatus, sizeBytes int64) error
	FindByID(ctx context.Context, id string) (*models.Backup, error)
	List(ctx context.Context) ([]models.Backup, error)
	Stats(ctx context.Context) (*models.BackupStats, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.Backup, error)
	Delete(ctx context.Context, id string) error
}

type backupStorage interface {
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	Path(filename string) string
}

// BackupsConfig tunes backup creation, signed URLs and retention.
type BackupsConfig struct {
	APIPrefix    string
	DocumentsDir string
	Retention    time.Duration
}

// BackupService creates, lists, restores and prunes document store backups.
// Archives are tar.gz snapshots of the document storage directory kept on
// local disk; downloads go through HMAC-signed URLs.
type BackupService struct {
	repo    backupRepository
	storage backupStorage
	signer  *storage.SignedURLSigner
	audit   auditRecorder
	logger  *zap.Logger
	cfg     BackupsConfig
}

// NewBackupService constructs a BackupService.
func NewBackupService(repo backupRepository, store backupStorage, signer *storage.SignedURLSigner, audit auditRecorder, logger *zap.Logger, cfg BackupsConfig) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &BackupService{repo: repo, storage: store, signer: signer, audit: audit, logger: logger, cfg: cfg}
}

// Create snapshots the document store into a new archive. The descriptor is
// inserted as PENDING and transitioned to COMPLETED or FAILED.
func (s *BackupService) Create(ctx context.Context, principal *models.Principal) (*models.Backup, error) {
	now := time.Now().UTC()
	backup := &models.Backup{
		FileName: fmt.Sprintf("backup-%s.tar.gz", now.Format("20060102-150405")),
		Status:   models.BackupStatusPending,
	}
	backup.StoragePath = filepath.Join("archives", backup.FileName)
	if principal != nil && principal.UserID != "" {
		backup.CreatedBy = &principal.UserID
	}

	if err := s.repo.Create(ctx, backup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create backup record")
	}

	size, err := s.writeArchive(backup.StoragePath)
	if err != nil {
		if updErr := s.repo.UpdateStatus(ctx, backup.ID, models.BackupStatusFailed, 0); updErr != nil {
			s.logger.Warn("failed to mark backup failed", zap.String("backup_id", backup.ID), zap.Error(updErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write backup archive")
	}

	if err := s.repo.UpdateStatus(ctx, backup.ID, models.BackupStatusCompleted, size); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalise backup record")
	}
	backup.Status = models.BackupStatusCompleted
	backup.SizeBytes = size

	var userID *string
	if principal != nil && principal.UserID != "" {
		userID = &principal.UserID
	}
	s.audit.Record(models.AuditLog{
		UserID:     userID,
		Action:     models.AuditActionBackupCreate,
		EntityType: "backup",
		EntityID:   &backup.ID,
	})

	return backup, nil
}

// List returns the inventory with aggregate stats.
func (s *BackupService) List(ctx context.Context) (*dto.BackupListResponse, error) {
	backups, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list backups")
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backup stats")
	}
	return &dto.BackupListResponse{Backups: backups, Stats: *stats}, nil
}

// SignedURL returns a time-limited download URL for a completed backup.
func (s *BackupService) SignedURL(ctx context.Context, id string) (*dto.BackupDownloadResponse, error) {
	backup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backup")
	}
	if backup.Status != models.BackupStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "backup is not completed")
	}

	token, expiresAt, err := s.signer.Generate(backup.ID, backup.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}

	return &dto.BackupDownloadResponse{
		URL:       fmt.Sprintf("%s/backup/download/%s", prefix, token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// ResolveDownload validates a signed token and opens the archive.
func (s *BackupService) ResolveDownload(ctx context.Context, token string) (*models.Backup, *os.File, error) {
	backupID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	backup, err := s.repo.FindByID(ctx, backupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backup")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open archive")
	}
	return backup, file, nil
}

// Restore unpacks a completed archive back into the document storage directory.
func (s *BackupService) Restore(ctx context.Context, principal *models.Principal, id string) error {
	backup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "backup not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backup")
	}
	if backup.Status != models.BackupStatusCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "backup is not completed")
	}

	archive, err := s.storage.Open(backup.StoragePath)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open archive")
	}
	defer archive.Close() //nolint:errcheck

	if err := extractArchive(archive, s.cfg.DocumentsDir); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore archive")
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionBackupRestore,
		EntityType: "backup",
		EntityID:   &backup.ID,
	})

	return nil
}

// Prune removes backups older than the retention window. Used by the
// scheduled backup task and the admin endpoint.
func (s *BackupService) Prune(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention)
	old, err := s.repo.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list old backups")
	}

	removed := 0
	for _, backup := range old {
		if err := s.storage.Delete(backup.StoragePath); err != nil {
			s.logger.Warn("failed to delete backup archive", zap.String("backup_id", backup.ID), zap.Error(err))
			continue
		}
		if err := s.repo.Delete(ctx, backup.ID); err != nil {
			s.logger.Warn("failed to delete backup record", zap.String("backup_id", backup.ID), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.audit.Record(models.AuditLog{
			Action:     models.AuditActionBackupPrune,
			EntityType: "backup",
		})
	}

	return removed, nil
}

// writeArchive tars the documents directory into the backup storage location
// and returns the archive size.
func (s *BackupService) writeArchive(relPath string) (int64, error) {
	target := s.storage.Path(relPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("prepare archive directory: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	defer out.Close() //nolint:errcheck

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(s.cfg.DocumentsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.cfg.DocumentsDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close() //nolint:errcheck
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("archive documents: %w", err)
	}

	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip writer: %w", err)
	}

	stat, err := os.Stat(target)
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return stat.Size(), nil
}

func extractArchive(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		// Reject entries that would escape the destination directory.
		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("prepare destination: %w", err)
		}
		out, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close() //nolint:errcheck
			return fmt.Errorf("write file: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close file: %w", err)
		}
	}
}
