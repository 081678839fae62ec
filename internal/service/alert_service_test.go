package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
)

type mockAlertDocRepo struct {
	expiring []models.Document
	expired  []models.Document
}

func (m *mockAlertDocRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Document, error) {
	if to.After(time.Now()) {
		return m.expiring, nil
	}
	return m.expired, nil
}

type mockAlertRepo struct {
	existing map[string]bool
	created  []*models.Alert
	emailed  []string
}

func (m *mockAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	alert.ID = "a" + alert.DocumentID
	m.created = append(m.created, alert)
	return nil
}

func (m *mockAlertRepo) Exists(ctx context.Context, documentID string, kind models.AlertKind) (bool, error) {
	return m.existing[documentID+":"+string(kind)], nil
}

func (m *mockAlertRepo) MarkEmailed(ctx context.Context, id string) error {
	m.emailed = append(m.emailed, id)
	return nil
}

type mockAlertUserRepo struct {
	user *models.User
}

func (m *mockAlertUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

type mockMailer struct {
	sent []string
	err  error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func expiringDoc(id string) models.Document {
	expiry := time.Now().Add(48 * time.Hour)
	return models.Document{ID: id, Title: "Doc " + id, AuthorID: "u1", Status: models.DocumentStatusActive, ExpirationDate: &expiry}
}

func TestAlertProcessCreatesAndEmails(t *testing.T) {
	docs := &mockAlertDocRepo{expiring: []models.Document{expiringDoc("d1")}}
	alerts := &mockAlertRepo{existing: map[string]bool{}}
	users := &mockAlertUserRepo{user: &models.User{ID: "u1", Email: "author@example.com"}}
	mailer := &mockMailer{}
	audit := &mockAudit{}
	svc := NewAlertService(docs, alerts, users, mailer, audit, zap.NewNop(), AlertsConfig{Enabled: true, NoticeWindow: 7 * 24 * time.Hour})

	result, err := svc.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Emailed)
	assert.Equal(t, []string{"author@example.com"}, mailer.sent)
	require.Len(t, alerts.created, 1)
	assert.Equal(t, models.AlertKindDocumentExpiring, alerts.created[0].Kind)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAlertProcess, audit.logs[0].Action)
}

func TestAlertProcessIdempotent(t *testing.T) {
	docs := &mockAlertDocRepo{expiring: []models.Document{expiringDoc("d1")}}
	alerts := &mockAlertRepo{existing: map[string]bool{"d1:" + string(models.AlertKindDocumentExpiring): true}}
	svc := NewAlertService(docs, alerts, &mockAlertUserRepo{}, nil, &mockAudit{}, zap.NewNop(), AlertsConfig{Enabled: true})

	result, err := svc.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, alerts.created)
}

func TestAlertProcessDisabled(t *testing.T) {
	svc := NewAlertService(&mockAlertDocRepo{}, &mockAlertRepo{}, &mockAlertUserRepo{}, nil, &mockAudit{}, zap.NewNop(), AlertsConfig{Enabled: false})

	result, err := svc.Process(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
}

func TestAlertProcessMailFailureStillCreatesAlert(t *testing.T) {
	docs := &mockAlertDocRepo{expiring: []models.Document{expiringDoc("d1")}}
	alerts := &mockAlertRepo{existing: map[string]bool{}}
	users := &mockAlertUserRepo{user: &models.User{ID: "u1", Email: "author@example.com"}}
	mailer := &mockMailer{err: errors.New("smtp down")}
	svc := NewAlertService(docs, alerts, users, mailer, &mockAudit{}, zap.NewNop(), AlertsConfig{Enabled: true})

	result, err := svc.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Emailed)
	assert.Empty(t, alerts.emailed)
}
