package model

import (
	"strings"
	"time"
)

// Role is the application role of a user.
type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes s and reports whether it is a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleUser, RoleProvider, RoleAdmin:
		return r, true
	}
	return "", false
}

// User represents an application user record as stored in the
// `users` table.  PasswordHash is never serialized.
//
// Fields:
//  ID           – UUID primary key.
//  Email        – unique, lower-cased email address.
//  Name         – display name.
//  PasswordHash – bcrypt hashed password.
//  Role         – user, provider or admin.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the authenticated caller of an operation.  It is built
// from a verified access token and passed explicitly to every service
// call that needs to know who is acting.
type Session struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// IsAdmin reports whether the session belongs to an admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// CanManage reports whether the session may edit or delete an event
// owned by providerID.
func (s Session) CanManage(providerID string) bool {
	return s.Role == RoleAdmin || (s.Role == RoleProvider && s.UserID == providerID)
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Session returns the session identity of u.
func (u User) Session() Session {
	return Session{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
