package services

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

// CredentialGateConfig holds the lockout policy
type CredentialGateConfig struct {
	MaxFailures     int
	LockoutDuration time.Duration
}

// DefaultCredentialGateConfig is three failures then fifteen minutes
func DefaultCredentialGateConfig() CredentialGateConfig {
	return CredentialGateConfig{MaxFailures: 3, LockoutDuration: 15 * time.Minute}
}

// CredentialGate validates login input and applies the failed-attempt lockout.
// Its input checks are a coarse heuristic to fail fast on obvious payloads.
// The backend remains the authority on credentials and input safety.
type CredentialGate struct {
	config   CredentialGateConfig
	markup   *bluemonday.Policy
	denylist []*regexp.Regexp
}

func NewCredentialGate(config CredentialGateConfig) *CredentialGate {
	if config.MaxFailures < 1 {
		config.MaxFailures = 1
	}
	return &CredentialGate{
		config: config,
		markup: bluemonday.StrictPolicy(),
		denylist: []*regexp.Regexp{
			regexp.MustCompile(`(?is)<script.*?>.*?</script>`),
			regexp.MustCompile(`['"\\;]`),
			regexp.MustCompile(`(?i)\b(select|insert|delete|update|drop|union|or|and)\b`),
			regexp.MustCompile(`--`),
		},
	}
}

// ValidateCredentials rejects blank fields with ErrEmptyField and denylisted
// content with ErrUnsafeInput. Blank is checked first for both fields.
func (g *CredentialGate) ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return models.ErrEmptyField
	}
	if !g.IsSafe(username) || !g.IsSafe(password) {
		return models.ErrUnsafeInput
	}
	return nil
}

// IsSafe reports whether s is free of markup and denylisted patterns
func (g *CredentialGate) IsSafe(s string) bool {
	for _, re := range g.denylist {
		if re.MatchString(s) {
			return false
		}
	}
	return !g.containsMarkup(s)
}

// containsMarkup is true when the strict policy would strip something from s
func (g *CredentialGate) containsMarkup(s string) bool {
	if !strings.ContainsAny(s, "<>") {
		return false
	}
	return html.UnescapeString(g.markup.Sanitize(s)) != s
}

// CheckLockout returns *models.LockedOutError while a lockout window is active
func (g *CredentialGate) CheckLockout(state models.LoginAttemptState, now time.Time) error {
	if !state.IsLocked(now) {
		return nil
	}
	return &models.LockedOutError{
		RemainingMinutes: remainingMinutes(*state.LockoutExpiresAt, now),
		ExpiresAt:        *state.LockoutExpiresAt,
	}
}

// RecordFailure counts a rejected login. A lockout starts each time the count
// reaches a multiple of MaxFailures while no lockout is active. An active
// lockout is never extended.
func (g *CredentialGate) RecordFailure(state models.LoginAttemptState, now time.Time) models.LoginAttemptState {
	next := state
	next.FailedCount++
	next.LastSeen = now

	if state.IsLocked(now) {
		return next
	}
	if next.FailedCount%g.config.MaxFailures == 0 {
		expires := now.Add(g.config.LockoutDuration)
		next.LockoutExpiresAt = &expires
	}
	return next
}

// RecordSuccess clears the failure count and any lockout
func (g *CredentialGate) RecordSuccess(state models.LoginAttemptState, now time.Time) models.LoginAttemptState {
	return models.LoginAttemptState{LastSeen: now}
}

// JustLocked reports whether RecordFailure started a new lockout between before and after
func JustLocked(before, after models.LoginAttemptState) bool {
	if after.LockoutExpiresAt == nil {
		return false
	}
	return before.LockoutExpiresAt == nil || !before.LockoutExpiresAt.Equal(*after.LockoutExpiresAt)
}

func remainingMinutes(expires, now time.Time) int {
	d := expires.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
