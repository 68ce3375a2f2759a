package model

import "time"

// Roles understood by the role middleware.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User represents a row of the `users` table.  PasswordHash is nil for
// accounts created through a social login and is never serialized.
//
// Fields:
//  ID             – UUID primary key.
//  Name           – display name.
//  Email          – unique, stored lower-cased.
//  PasswordHash   – bcrypt hash (nullable).
//  Role           – customer, owner, staff or admin.
//  Phone          – optional contact number.
//  GoogleID       – subject of the linked Google account.
//  FacebookID     – id of the linked Facebook account.
//  ProfilePicture – avatar URL.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   *string   `json:"-"`
	Role           string    `json:"role"`
	Phone          *string   `json:"phone,omitempty"`
	GoogleID       *string   `json:"google_id,omitempty"`
	FacebookID     *string   `json:"facebook_id,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleCustomer, RoleOwner, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
