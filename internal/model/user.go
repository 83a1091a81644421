package model

import "time"

// User represents an operator account as stored in the `users` table.
// Roles are plain strings: "admin" can manage settings, tiers and deletions,
// "operator" can record and dispatch donations. The json tags are omitted
// because handlers define their own response shapes.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique, lowercased login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (admin or operator).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user; only the SHA-256 hash of the raw token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// ActivityLog records an operator action in the `activity_logs` table.
// Details is a free-form JSON document describing the action target.
type ActivityLog struct {
	ID        uint64    // activity_logs.id
	UserID    uint64    // activity_logs.user_id
	Action    string    // activity_logs.action
	Details   string    // activity_logs.details (JSON)
	CreatedAt time.Time // activity_logs.created_at
}
