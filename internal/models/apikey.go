package models

import (
	"time"

	"github.com/lib/pq"
)

// APIKeyPrefix is the literal prefix every presented key must carry.
const APIKeyPrefix = "sk_"

// PermissionWildcard grants every permission when present in a key's set.
const PermissionWildcard = "*"

// APIKey represents a programmatic credential. The raw secret is never
// persisted; only a SHA-256 hex digest of the full presented token is stored.
type APIKey struct {
	ID          string         `db:"id" json:"id"`
	KeyHash     string         `db:"key_hash" json:"-"`
	Name        string         `db:"name" json:"name"`
	UserID      string         `db:"user_id" json:"user_id"`
	Permissions pq.StringArray `db:"permissions" json:"permissions"`
	RateLimit   int            `db:"rate_limit" json:"rate_limit"`
	IPAllowlist pq.StringArray `db:"ip_allowlist" json:"ip_allowlist,omitempty"`
	Active      bool           `db:"active" json:"active"`
	ExpiresAt   *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
	LastUsedAt  *time.Time     `db:"last_used_at" json:"last_used_at,omitempty"`
	UsageCount  int64          `db:"usage_count" json:"usage_count"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// HasPermission checks literal membership or the wildcard.
func (k *APIKey) HasPermission(perm string) bool {
	for _, p := range k.Permissions {
		if p == PermissionWildcard || p == perm {
			return true
		}
	}
	return false
}

// APIRequestLog records one API-key-authenticated call. The sliding-window
// rate limit is computed from these rows, not from a fixed counter.
type APIRequestLog struct {
	ID        string    `db:"id" json:"id"`
	APIKeyID  *string   `db:"api_key_id" json:"api_key_id,omitempty"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	Method    string    `db:"method" json:"method"`
	Status    int       `db:"status" json:"status"`
	LatencyMs int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
