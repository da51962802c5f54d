package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/database"
	"github.com/espe-ciber/sentinel-console/internal/metrics"
	"github.com/espe-ciber/sentinel-console/internal/models"
)

// SessionRepository persists console sessions in Postgres
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Save(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO console_sessions (id, username, email, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, email = EXCLUDED.email,
		    role = EXCLUDED.role, expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.Pool.Exec(ctx, query, s.ID, s.Username, s.Email, s.Role, s.CreatedAt, s.ExpiresAt)
	return database.MapPostgresError(err)
}

// Load returns models.ErrNotFound for unknown ids
func (r *SessionRepository) Load(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id::text, username, email, role, created_at, expires_at
		FROM console_sessions
		WHERE id = $1
	`
	var s models.Session
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Username, &s.Email, &s.Role, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM console_sessions WHERE id = $1`, id)
	return database.MapPostgresError(err)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM console_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

// MemorySessionRepository keeps sessions in process memory. Sessions do not
// survive a restart.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.Session)}
}

func (r *MemorySessionRepository) Save(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return nil
}

func (r *MemorySessionRepository) Load(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, s := range r.sessions {
		if s.IsExpired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return removed, nil
}
