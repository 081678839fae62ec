package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type apiKeyRepository interface {
	FindByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	CountRequestsSince(ctx context.Context, keyID string, since time.Time) (int, error)
	RecordUsage(ctx context.Context, keyID string, usedAt time.Time) error
	CreateRequestLog(ctx context.Context, log *models.APIRequestLog) error
}

type apiKeyUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// rateLimitWindow is the trailing window the sliding rate limit counts over.
const rateLimitWindow = time.Hour

// APIKeyService validates programmatic credentials. Checks run in a fixed
// order: format, lookup, active, expiry, IP allowlist, rate limit. The limit
// is evaluated before the request is logged, so a burst of concurrent calls
// can overshoot the configured ceiling by the number of in-flight requests.
type APIKeyService struct {
	repo   apiKeyRepository
	users  apiKeyUserRepository
	logger *zap.Logger
}

// NewAPIKeyService constructs an APIKeyService.
func NewAPIKeyService(repo apiKeyRepository, users apiKeyUserRepository, logger *zap.Logger) *APIKeyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIKeyService{repo: repo, users: users, logger: logger}
}

// Validate authenticates a presented API key and returns the acting principal.
func (s *APIKeyService) Validate(ctx context.Context, rawKey, callerIP string) (*models.Principal, *models.APIKey, error) {
	rawKey = strings.TrimSpace(strings.TrimPrefix(rawKey, "Bearer "))
	if !strings.HasPrefix(rawKey, models.APIKeyPrefix) {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidKeyFormat, "")
	}

	digest := sha256.Sum256([]byte(rawKey))
	key, err := s.repo.FindByHash(ctx, hex.EncodeToString(digest[:]))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidAPIKey, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up api key")
	}

	now := time.Now().UTC()
	if !key.Active {
		return nil, nil, appErrors.Clone(appErrors.ErrKeyInactive, "")
	}
	if key.ExpiresAt != nil && now.After(*key.ExpiresAt) {
		return nil, nil, appErrors.Clone(appErrors.ErrKeyExpired, "")
	}
	if !ipAllowed(key.IPAllowlist, callerIP) {
		return nil, nil, appErrors.Clone(appErrors.ErrIPNotAllowed, "")
	}

	if key.RateLimit > 0 {
		used, err := s.repo.CountRequestsSince(ctx, key.ID, now.Add(-rateLimitWindow))
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate rate limit")
		}
		if used >= key.RateLimit {
			return nil, nil, appErrors.Clone(appErrors.ErrRateLimited, "")
		}
	}

	if err := s.repo.RecordUsage(ctx, key.ID, now); err != nil {
		s.logger.Warn("failed to record api key usage", zap.String("key_id", key.ID), zap.Error(err))
	}

	principal := &models.Principal{
		APIKeyID:    key.ID,
		Permissions: key.Permissions,
	}

	owner, err := s.users.FindByID(ctx, key.UserID)
	if err == nil {
		principal.UserID = owner.ID
		principal.Email = owner.Email
		principal.FullName = owner.FullName
		principal.Role = owner.Role
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load key owner")
	}

	return principal, key, nil
}

// LogRequest appends one request log row after the handler finished. These
// rows feed the sliding-window count for subsequent calls.
func (s *APIKeyService) LogRequest(ctx context.Context, keyID, endpoint, method string, status int, latency time.Duration) {
	log := &models.APIRequestLog{
		Endpoint:  endpoint,
		Method:    method,
		Status:    status,
		LatencyMs: latency.Milliseconds(),
	}
	if keyID != "" {
		log.APIKeyID = &keyID
	}
	if err := s.repo.CreateRequestLog(ctx, log); err != nil {
		s.logger.Warn("failed to record api request log", zap.String("key_id", keyID), zap.Error(err))
	}
}

// ipAllowed accepts every caller when the allowlist is empty.
func ipAllowed(allowlist []string, callerIP string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, ip := range allowlist {
		if ip == callerIP {
			return true
		}
	}
	return false
}
