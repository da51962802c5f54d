package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the console-side record of a signed-in user. It replaces the
// browser-local "current user" entry: saved on login, loaded per request,
// cleared on logout.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User returns the identity carried by the session
func (s *Session) User() User {
	return User{Username: s.Username, Email: s.Email, Role: s.Role}
}

// IsExpired reports whether the session is no longer valid at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionClaims are carried in the session cookie
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}
