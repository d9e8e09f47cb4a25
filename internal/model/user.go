package model

import (
	"strings"
	"time"
)

// User represents an application user record as stored in the `users`
// table. Identifiers are v4 UUIDs generated at creation time so that
// pre-auth clients can keep using them as their per-request identity
// header while the account migrates to credential-based sessions.
//
// Fields:
//  ID           – UUID primary key of the user.
//  Name         – unique, case-sensitive display/login name.
//  Role         – role name; only "admin" carries extra privileges.
//                 Nil when the user has no assigned role.
//  PasswordHash – bcrypt hash of the password. Nil marks a legacy
//                 account provisioned before password auth existed;
//                 such accounts can only enter through the legacy
//                 bridge, never through password login.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Name         string    // users.name
	Role         *string   // users.role (nullable)
	PasswordHash *string   // users.password_hash (nullable, legacy when nil)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// AuthUser is the request-scoped identity attached by the auth
// middleware after a credential has been verified. It lives only for
// the duration of one request and is never persisted.
type AuthUser struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Role *string `json:"role"`
}

// IsAdmin reports whether the user's role grants admin privileges.
// The comparison is case-insensitive because historical rows carry
// mixed-case role values.
func (u AuthUser) IsAdmin() bool {
	return u.Role != nil && strings.EqualFold(*u.Role, "admin")
}

// RefreshToken models a row in the `refresh_tokens` table. Only the
// SHA-256 hash of the secret is stored; the raw value exists solely in
// transit. A row is deleted the moment it is consumed; deletion is
// the used-marker, there is no revoked flag.
//
// Fields:
//  ID        – surrogate primary key.
//  UserID    – owner of the token.
//  UserName  – owner's name, populated only by the admin sessions view.
//  TokenHash – SHA-256 hex digest of the secret (unique).
//  ExpiresAt – absolute expiry; a token is expired when ExpiresAt <= now.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    string    // refresh_tokens.user_id
	UserName  string    // joined users.name (admin listing only)
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
