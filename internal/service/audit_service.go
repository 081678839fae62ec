package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
	"github.com/sigmadocs/ged-api/pkg/export"
	"github.com/sigmadocs/ged-api/pkg/jobs"
)

// auditRecorder is the write side of the audit trail, consumed by the other
// services. Record is fire-and-forget: a failed append never propagates.
type auditRecorder interface {
	Record(log models.AuditLog)
}

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditService appends audit trail entries through a background queue so the
// originating request never waits on, or fails because of, the audit write.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs an AuditService with its own worker queue. Call
// Start before recording and Stop on shutdown.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    2,
		BufferSize: 256,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start begins queue consumption.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues one audit entry. Failures are logged and swallowed.
func (s *AuditService) Record(log models.AuditLog) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(jobs.Job{ID: log.ID, Type: "audit_append", Payload: log}); err != nil {
		s.logger.Warn("failed to enqueue audit entry", zap.String("action", log.Action), zap.Error(err))
	}
}

// List returns the most recent audit entries.
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}

// ExportDataset shapes recent audit entries for CSV or PDF rendering.
func (s *AuditService) ExportDataset(ctx context.Context, limit int) (export.Dataset, error) {
	logs, err := s.repo.ListAuditLogs(ctx, limit)
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([]map[string]string, 0, len(logs))
	for _, entry := range logs {
		userID := ""
		if entry.UserID != nil {
			userID = *entry.UserID
		}
		entityID := ""
		if entry.EntityID != nil {
			entityID = *entry.EntityID
		}
		rows = append(rows, map[string]string{
			"Timestamp": entry.CreatedAt.UTC().Format(time.RFC3339),
			"User":      userID,
			"Action":    entry.Action,
			"Entity":    entry.EntityType,
			"Entity ID": entityID,
			"IP":        entry.IPAddress,
		})
	}

	return export.Dataset{
		Headers: []string{"Timestamp", "User", "Action", "Entity", "Entity ID", "IP"},
		Rows:    rows,
	}, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.CreateAuditLog(ctx, &entry)
}
