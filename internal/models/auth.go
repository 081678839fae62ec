package models

import "time"

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued session and user info.
type LoginResponse struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// Principal identifies the authenticated caller for the current request.
// It is produced by session resolution or API-key validation and stored on
// the request context.
type Principal struct {
	UserID   string
	Email    string
	FullName string
	Role     UserRole

	// APIKeyID is set when the principal was authenticated by API key.
	APIKeyID    string
	Permissions []string

	// Cron is true when the request carried a valid cron secret instead of
	// a human session.
	Cron bool
}

// IsAdmin reports whether the principal holds the ADMIN role. Cron callers
// act with admin privileges on the routes that accept them.
func (p *Principal) IsAdmin() bool {
	return p != nil && (p.Role == RoleAdmin || p.Cron)
}
