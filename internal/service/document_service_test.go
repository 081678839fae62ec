package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/storage"
)

func newFakeStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return store
}

func timeInFuture() time.Time {
	return time.Now().Add(10 * time.Minute)
}

type mockDocumentRepo struct {
	docs    map[string]*models.Document
	lock    *models.DocumentLock
	created []*models.Document
	deleted []string
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return doc, nil
}

func (m *mockDocumentRepo) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	out := make([]models.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, *doc)
	}
	return out, len(out), nil
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if m.docs == nil {
		m.docs = make(map[string]*models.Document)
	}
	m.docs[doc.ID] = doc
	m.created = append(m.created, doc)
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentRepo) ListSignatures(ctx context.Context, documentID string) ([]models.DocumentSignature, error) {
	return nil, nil
}

func (m *mockDocumentRepo) FindLock(ctx context.Context, documentID string) (*models.DocumentLock, error) {
	if m.lock == nil || m.lock.DocumentID != documentID {
		return nil, sql.ErrNoRows
	}
	return m.lock, nil
}

func TestDocumentGetConfidentialForbidden(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]*models.Document{
		"d1": {ID: "d1", Title: "Secret", AuthorID: "owner", Confidentiality: models.ConfidentialityConfidential},
	}}
	svc := NewDocumentService(repo, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret"})

	_, err := svc.Get(context.Background(), &models.Principal{UserID: "intruder", Role: models.RoleUser}, "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDocumentGetNotFoundBeforeForbidden(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]*models.Document{}}
	svc := NewDocumentService(repo, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret"})

	_, err := svc.Get(context.Background(), &models.Principal{UserID: "anyone", Role: models.RoleViewer}, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentGetRecordsAudit(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]*models.Document{
		"d1": {ID: "d1", Title: "Memo", AuthorID: "owner", Confidentiality: models.ConfidentialityInternal},
	}}
	audit := &mockAudit{}
	svc := NewDocumentService(repo, newFakeStorage(t), audit, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret"})

	detail, err := svc.Get(context.Background(), &models.Principal{UserID: "reader", Role: models.RoleUser}, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Memo", detail.Title)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDocumentRead, audit.logs[0].Action)
}

func TestDocumentCreateAndDownloadToken(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]*models.Document{}}
	svc := NewDocumentService(repo, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{APIPrefix: "/api", DownloadSecret: "secret"})
	principal := &models.Principal{UserID: "author", Role: models.RoleUser}

	doc, err := svc.Create(context.Background(), principal, dto.CreateDocumentRequest{Title: "Contract"}, "contract.pdf", 5, "application/pdf", bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, "author", doc.AuthorID)
	assert.Equal(t, models.DocumentStatusActive, doc.Status)

	download, err := svc.IssueDownloadToken(context.Background(), principal, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, download.Token)
	assert.Contains(t, download.URL, "/api/documents/download/")

	resolved, file, err := svc.ResolveDownloadToken(context.Background(), download.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, doc.ID, resolved.ID)
}

func TestDocumentCreateRejectsOversizedFile(t *testing.T) {
	svc := NewDocumentService(&mockDocumentRepo{}, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret", MaxFileSizeBytes: 10})

	_, err := svc.Create(context.Background(), &models.Principal{UserID: "u1"}, dto.CreateDocumentRequest{Title: "Big"}, "big.bin", 11, "application/octet-stream", bytes.NewReader(make([]byte, 11)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentDeleteAuthorOnly(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]*models.Document{
		"d1": {ID: "d1", AuthorID: "owner", StoragePath: "documents/d1.pdf"},
	}}
	svc := NewDocumentService(repo, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret"})

	err := svc.Delete(context.Background(), &models.Principal{UserID: "other", Role: models.RoleUser}, "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), &models.Principal{UserID: "owner", Role: models.RoleUser}, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, repo.deleted)
}

func TestDocumentDeleteBlockedByForeignLock(t *testing.T) {
	repo := &mockDocumentRepo{
		docs: map[string]*models.Document{"d1": {ID: "d1", AuthorID: "owner"}},
		lock: lockFixture("editor", timeInFuture()),
	}
	svc := NewDocumentService(repo, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret"})

	err := svc.Delete(context.Background(), &models.Principal{UserID: "owner", Role: models.RoleUser}, "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLockHeld.Code, appErrors.FromError(err).Code)
}

func TestDocumentListScopesNonAdmin(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]*models.Document{"d1": {ID: "d1", AuthorID: "u1"}}}
	svc := NewDocumentService(repo, newFakeStorage(t), &mockAudit{}, validator.New(), zap.NewNop(), DocumentsConfig{DownloadSecret: "secret"})

	docs, pagination, err := svc.List(context.Background(), &models.Principal{UserID: "u1", Role: models.RoleUser}, models.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 20, pagination.PageSize)
}
