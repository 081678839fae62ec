package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
)

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (m *mockAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepo) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditLog, 0, len(m.logs))
	for _, log := range m.logs {
		out = append(out, *log)
	}
	return out, nil
}

func (m *mockAuditRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func TestAuditRecordPersistsThroughQueue(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	userID := "u1"
	svc.Record(models.AuditLog{UserID: &userID, Action: models.AuditActionLogin, EntityType: "session"})

	require.Eventually(t, func() bool {
		return repo.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAuditExportDataset(t *testing.T) {
	repo := &mockAuditRepo{}
	userID := "u1"
	_ = repo.CreateAuditLog(context.Background(), &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionDocumentRead,
		EntityType: "document",
		IPAddress:  "10.0.0.1",
		CreatedAt:  time.Now(),
	})

	svc := NewAuditService(repo, zap.NewNop())
	dataset, err := svc.ExportDataset(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp", "User", "Action", "Entity", "Entity ID", "IP"}, dataset.Headers)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, models.AuditActionDocumentRead, dataset.Rows[0]["Action"])
	assert.Equal(t, "u1", dataset.Rows[0]["User"])
}
