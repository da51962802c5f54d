package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/metrics"
	"github.com/espe-ciber/sentinel-console/internal/models"
)

// LoginAttemptRepository keeps one LoginAttemptState per browser gate id.
// State is held in memory only and never persisted.
type LoginAttemptRepository struct {
	mu     sync.Mutex
	states map[string]models.LoginAttemptState
}

func NewLoginAttemptRepository() *LoginAttemptRepository {
	return &LoginAttemptRepository{states: make(map[string]models.LoginAttemptState)}
}

// Get returns the state for key, or a fresh state when none is tracked
func (r *LoginAttemptRepository) Get(ctx context.Context, key string) (models.LoginAttemptState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[key], nil
}

// Update applies fn to the state for key under the registry lock and stores the result
func (r *LoginAttemptRepository) Update(ctx context.Context, key string, fn func(models.LoginAttemptState) models.LoginAttemptState) (models.LoginAttemptState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := fn(r.states[key])
	r.states[key] = next
	metrics.GateEntries.Set(float64(len(r.states)))
	return next, nil
}

// DeleteIdle drops entries not touched since before and without an active lockout
func (r *LoginAttemptRepository) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for key, state := range r.states {
		if state.IsLocked(before) || state.LastSeen.After(before) {
			continue
		}
		delete(r.states, key)
		removed++
	}
	metrics.GateEntries.Set(float64(len(r.states)))
	return removed, nil
}

// Len reports how many browsers are tracked
func (r *LoginAttemptRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
