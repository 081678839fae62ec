package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type mockAudit struct {
	logs []models.AuditLog
}

func (m *mockAudit) Record(log models.AuditLog) {
	m.logs = append(m.logs, log)
}

type mockAuthRepo struct {
	userByEmail     *models.User
	userByID        *models.User
	userCount       int
	created         []*models.User
	sessions        map[string]*models.Session
	deletedSessions []string
	passwordUpdated string
	lastLogin       bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil || !strings.EqualFold(m.userByEmail.Email, email) {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID != nil && m.userByID.ID == id {
		return m.userByID, nil
	}
	if m.userByEmail != nil && m.userByEmail.ID == id {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Count(ctx context.Context) (int, error) {
	return m.userCount, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, user)
	m.userCount++
	if m.userByEmail == nil {
		m.userByEmail = user
	}
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordUpdated = passwordHash
	if m.userByEmail != nil && m.userByEmail.ID == id {
		m.userByEmail.PasswordHash = passwordHash
		m.userByEmail.NeedsPasswordReset = false
	}
	return nil
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	if m.sessions == nil {
		m.sessions = make(map[string]*models.Session)
	}
	if session.ID == "" {
		session.ID = "s1"
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *mockAuthRepo) FindSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	session, ok := m.sessions[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func (m *mockAuthRepo) DeleteUserSessions(ctx context.Context, userID string) error {
	m.deletedSessions = append(m.deletedSessions, userID)
	for token, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Active: true, Role: models.RoleUser}, userCount: 1}
	audit := &mockAudit{}
	svc := NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{SessionTTL: 24 * time.Hour})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.ExpiresAt, time.Minute)
	assert.True(t, repo.lastLogin)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
}

func TestAuthServiceLoginInvalidPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Active: true}, userCount: 1}
	svc := NewAuthService(repo, &mockAudit{}, validator.New(), zap.NewNop(), AuthConfig{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Active: false}, userCount: 1}
	svc := NewAuthService(repo, &mockAudit{}, validator.New(), zap.NewNop(), AuthConfig{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLegacyPasswordUpgrade(t *testing.T) {
	digest := sha256.Sum256([]byte("legacy-pass"))
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u1", Email: "user@example.com",
		PasswordHash:       hex.EncodeToString(digest[:]),
		Active:             true,
		NeedsPasswordReset: true,
	}, userCount: 1}
	svc := NewAuthService(repo, &mockAudit{}, validator.New(), zap.NewNop(), AuthConfig{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "legacy-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotEmpty(t, repo.passwordUpdated)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordUpdated), []byte("legacy-pass")))
	assert.False(t, repo.userByEmail.NeedsPasswordReset)
}

func TestAuthServiceBootstrapAdmin(t *testing.T) {
	repo := &mockAuthRepo{userCount: 0}
	svc := NewAuthService(repo, &mockAudit{}, validator.New(), zap.NewNop(), AuthConfig{
		BootstrapAdmin:    true,
		BootstrapEmail:    "admin@sigmadocs.com.br",
		BootstrapPassword: "admin123",
	})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@sigmadocs.com.br", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "admin@sigmadocs.com.br", repo.created[0].Email)
}

func TestResolveSessionExpired(t *testing.T) {
	repo := &mockAuthRepo{
		userByID: &models.User{ID: "u1", Email: "user@example.com", Active: true},
		sessions: map[string]*models.Session{
			"tok": {ID: "s1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(-time.Minute)},
		},
	}
	svc := NewAuthService(repo, &mockAudit{}, validator.New(), zap.NewNop(), AuthConfig{})

	_, err := svc.ResolveSession(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRemovesAllUserSessions(t *testing.T) {
	repo := &mockAuthRepo{
		sessions: map[string]*models.Session{
			"tok1": {ID: "s1", UserID: "u1", Token: "tok1", ExpiresAt: time.Now().Add(time.Hour)},
			"tok2": {ID: "s2", UserID: "u1", Token: "tok2", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	audit := &mockAudit{}
	svc := NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{})

	svc.Logout(context.Background(), "tok1", models.LoginRequest{})
	assert.Empty(t, repo.sessions)
	assert.Equal(t, []string{"u1"}, repo.deletedSessions)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogout, audit.logs[0].Action)
}

func TestLogoutUnknownTokenIsSilent(t *testing.T) {
	repo := &mockAuthRepo{sessions: map[string]*models.Session{}}
	svc := NewAuthService(repo, &mockAudit{}, validator.New(), zap.NewNop(), AuthConfig{})

	svc.Logout(context.Background(), "missing", models.LoginRequest{})
	assert.Empty(t, repo.deletedSessions)
}
