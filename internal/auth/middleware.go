package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/models"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the resolved session in context
	SessionContextKey contextKey = "session"
)

// SessionLoader is the read side of the session store
type SessionLoader interface {
	Load(ctx context.Context, id string) (*models.Session, error)
}

// SessionMiddleware resolves the console_session cookie into a stored session.
// Missing, forged, expired or revoked sessions are rejected with 401.
func SessionMiddleware(tm *TokenManager, store SessionLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := CookieValue(r, SessionCookieName)
			if token == "" {
				pkghttp.WriteUnauthorized(w, "Please log in to continue")
				return
			}

			claims, err := tm.Validate(token)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Your session has expired, please log in again")
				return
			}

			session, err := store.Load(r.Context(), claims.SessionID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Your session has expired, please log in again")
					return
				}
				pkghttp.WriteInternalError(w, "Unable to verify session")
				return
			}

			// The store is authoritative for role and lifetime
			if session.IsExpired(time.Now()) || session.Username != claims.Username {
				pkghttp.WriteUnauthorized(w, "Your session has expired, please log in again")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireRole enforces role-based access. Must run after SessionMiddleware.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			if session == nil {
				pkghttp.WriteUnauthorized(w, "Please log in to continue")
				return
			}
			if session.Role != role {
				pkghttp.WriteForbidden(w, "You do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// GetSessionFromContext extracts the session, or nil when unauthenticated
func GetSessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
