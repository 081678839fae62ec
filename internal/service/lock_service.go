package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type lockRepository interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	FindLock(ctx context.Context, documentID string) (*models.DocumentLock, error)
	CreateLock(ctx context.Context, lock *models.DocumentLock) error
	DeleteLock(ctx context.Context, lockID string) error
	DeleteExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// LockService manages advisory edit locks on documents. Locks are exclusive
// per document and expire after a fixed TTL even when never released.
type LockService struct {
	repo   lockRepository
	audit  auditRecorder
	logger *zap.Logger
	ttl    time.Duration
}

// NewLockService constructs a LockService.
func NewLockService(repo lockRepository, audit auditRecorder, logger *zap.Logger, ttl time.Duration) *LockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &LockService{repo: repo, audit: audit, logger: logger, ttl: ttl}
}

// Acquire takes the lock for the principal. Re-acquiring a lock the caller
// already holds refreshes its expiry; a live lock held by someone else is a
// conflict. An expired lock is removed and replaced.
func (s *LockService) Acquire(ctx context.Context, principal *models.Principal, documentID string) (*models.DocumentLock, error) {
	if _, err := s.repo.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	now := time.Now().UTC()

	existing, err := s.repo.FindLock(ctx, documentID)
	if err == nil {
		switch {
		case existing.Expired(now):
			if err := s.repo.DeleteLock(ctx, existing.ID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear expired lock")
			}
		case existing.HolderID == principal.UserID:
			if err := s.repo.DeleteLock(ctx, existing.ID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh lock")
			}
		default:
			return nil, appErrors.Clone(appErrors.ErrLockHeld, "")
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
	}

	lock := &models.DocumentLock{
		DocumentID: documentID,
		HolderID:   principal.UserID,
		HolderName: principal.FullName,
		AcquiredAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.repo.CreateLock(ctx, lock); err != nil {
		// The unique constraint on document_id fires when another caller won
		// the race between FindLock and CreateLock.
		return nil, appErrors.Clone(appErrors.ErrLockHeld, "")
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionLockAcquire,
		EntityType: "document",
		EntityID:   &documentID,
	})

	return lock, nil
}

// Status returns the live lock on a document, or nil when unlocked. An
// expired lock reports as unlocked without being deleted.
func (s *LockService) Status(ctx context.Context, documentID string) (*models.DocumentLock, error) {
	if _, err := s.repo.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	lock, err := s.repo.FindLock(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
	}
	if lock.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return lock, nil
}

// Release frees the lock. Only the holder or an admin may release a live lock.
func (s *LockService) Release(ctx context.Context, principal *models.Principal, documentID string) error {
	if _, err := s.repo.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	lock, err := s.repo.FindLock(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document is not locked")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
	}

	if !lock.Expired(time.Now().UTC()) && lock.HolderID != principal.UserID && !principal.IsAdmin() {
		return appErrors.Clone(appErrors.ErrNotLockHolder, "")
	}

	if err := s.repo.DeleteLock(ctx, lock.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release lock")
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionLockRelease,
		EntityType: "document",
		EntityID:   &documentID,
	})

	return nil
}

// CleanupExpired prunes locks past their TTL. Used by the scheduled cleanup task.
func (s *LockService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredLocks(ctx, time.Now().UTC())
}
