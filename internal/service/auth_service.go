package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	CreateSession(ctx context.Context, session *models.Session) error
	FindSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteUserSessions(ctx context.Context, userID string) error
}

// AuthConfig defines configuration for session issuance and the first-run
// admin bootstrap.
type AuthConfig struct {
	SessionTTL        time.Duration
	BootstrapAdmin    bool
	BootstrapEmail    string
	BootstrapPassword string
}

// AuthService provides authentication use cases backed by opaque sessions.
type AuthService struct {
	repo      authUserRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, audit: audit, validator: validate, logger: logger, config: config}
}

// Login authenticates a user and issues a new session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if s.config.BootstrapAdmin {
		if err := s.ensureBootstrapAdmin(ctx); err != nil {
			s.logger.Warn("admin bootstrap failed", zap.Error(err))
		}
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := s.verifyPassword(ctx, user, req.Password); err != nil {
		return nil, err
	}

	tokenValue, err := s.generateSessionToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	now := time.Now().UTC()
	session := &models.Session{
		UserID:    user.ID,
		Token:     tokenValue,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	s.audit.Record(models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionLogin,
		EntityType: "session",
		EntityID:   &session.ID,
		Details:    []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: models.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

// ResolveSession maps an opaque session token to its principal. Expired or
// unknown tokens resolve to ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session token")
	}

	session, err := s.repo.FindSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if session.Expired(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	return &models.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil
}

// Logout removes every session belonging to the token's user. The operation
// never reports failure to the caller: an unknown or expired token still
// produces a successful logout.
func (s *AuthService) Logout(ctx context.Context, token string, meta models.LoginRequest) {
	if token == "" {
		return
	}

	session, err := s.repo.FindSessionByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load session on logout", zap.Error(err))
		}
		return
	}

	if err := s.repo.DeleteUserSessions(ctx, session.UserID); err != nil {
		s.logger.Warn("failed to delete user sessions", zap.Error(err))
		return
	}

	s.audit.Record(models.AuditLog{
		UserID:     &session.UserID,
		Action:     models.AuditActionLogout,
		EntityType: "session",
		EntityID:   &session.ID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
}

// verifyPassword checks the submitted password against the stored hash. Users
// flagged with needs_password_reset carry a legacy SHA-256 hex digest; a
// successful match upgrades the stored hash to bcrypt in place.
func (s *AuthService) verifyPassword(ctx context.Context, user *models.User, password string) error {
	if user.NeedsPasswordReset {
		digest := sha256.Sum256([]byte(password))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(digest[:])), []byte(user.PasswordHash)) != 1 {
			return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}

		newHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upgrade password hash")
		}
		if err := s.repo.UpdatePassword(ctx, user.ID, string(newHash), time.Now().UTC()); err != nil {
			s.logger.Warn("failed to upgrade legacy password hash", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	return nil
}

// ensureBootstrapAdmin seeds the default administrator when the users table is
// empty. Runs only when enabled by configuration.
func (s *AuthService) ensureBootstrapAdmin(ctx context.Context) error {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.BootstrapPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        s.config.BootstrapEmail,
		PasswordHash: string(hash),
		FullName:     "Administrador",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	return nil
}

func (s *AuthService) generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
