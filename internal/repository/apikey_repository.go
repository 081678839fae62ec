package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigmadocs/ged-api/internal/models"
)

// APIKeyRepository provides database access for API keys and request logs.
type APIKeyRepository struct {
	db *sqlx.DB
}

// NewAPIKeyRepository creates a new instance of APIKeyRepository.
func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// FindByHash returns a key by the SHA-256 hex digest of the presented token.
func (r *APIKeyRepository) FindByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	const query = `SELECT id, key_hash, name, user_id, permissions, rate_limit, ip_allowlist, active, expires_at, last_used_at, usage_count, created_at FROM api_keys WHERE key_hash = $1 LIMIT 1`
	var key models.APIKey
	if err := r.db.GetContext(ctx, &key, query, keyHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find api key by hash: %w", err)
	}
	return &key, nil
}

// CountRequestsSince counts logged requests for a key at or after the cutoff.
// This backs the sliding-window rate limit.
func (r *APIKeyRepository) CountRequestsSince(ctx context.Context, keyID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM api_request_logs WHERE api_key_id = $1 AND created_at >= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, keyID, since); err != nil {
		return 0, fmt.Errorf("count api requests: %w", err)
	}
	return total, nil
}

// RecordUsage bumps last_used_at and the lifetime usage counter.
func (r *APIKeyRepository) RecordUsage(ctx context.Context, keyID string, usedAt time.Time) error {
	const query = `UPDATE api_keys SET last_used_at = $2, usage_count = usage_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, keyID, usedAt); err != nil {
		return fmt.Errorf("record api key usage: %w", err)
	}
	return nil
}

// CreateRequestLog appends one request log row.
func (r *APIKeyRepository) CreateRequestLog(ctx context.Context, log *models.APIRequestLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO api_request_logs (id, api_key_id, endpoint, method, status, latency_ms, created_at) VALUES (:id, :api_key_id, :endpoint, :method, :status, :latency_ms, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create api request log: %w", err)
	}
	return nil
}
