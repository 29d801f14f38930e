package model

import "time"

// Global user roles.  Organization-scoped roles live on the
// user_organizations link instead.
const (
	RoleGlobalAdmin = "global_admin"
	RoleOrgAdmin    = "organization_admin"
	RoleCoach       = "coach"
	RoleMember      = "member"
)

// User represents an application user record as stored in the `users`
// table.  Passwords are stored only as bcrypt hashes.  Handlers define
// separate response types where the hash must not leak.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password (never serialized).
//	Name         – display name.
//	Role         – global role (see constants above).
//	IsActive     – whether the account is active.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry and
// revocation.  The plain token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
