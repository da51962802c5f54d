package models

import "time"

// LoginAttemptState tracks consecutive failed logins for one browser.
// It lives in memory only and is discarded when the gate entry is evicted.
type LoginAttemptState struct {
	FailedCount      int        `json:"failed_count"`
	LockoutExpiresAt *time.Time `json:"lockout_expires_at,omitempty"`
	LastSeen         time.Time  `json:"-"`
}

// IsLocked reports whether a lockout window is active at now
func (s LoginAttemptState) IsLocked(now time.Time) bool {
	return s.LockoutExpiresAt != nil && now.Before(*s.LockoutExpiresAt)
}

// LoginOutcome is the recorded result of a login attempt, used for metrics and action logs
type LoginOutcome string

const (
	LoginOutcomeSuccess     LoginOutcome = "success"
	LoginOutcomeFailure     LoginOutcome = "failure"
	LoginOutcomeLockedOut   LoginOutcome = "locked_out"
	LoginOutcomeInvalid     LoginOutcome = "invalid_input"
	LoginOutcomeUnreachable LoginOutcome = "backend_unreachable"
)
