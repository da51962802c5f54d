package middleware

import (
	"log/slog"
	"net/http"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// CSRFProtection requires a valid X-CSRF-Token header on state-changing
// requests. The token is bound to the session, so it must run after
// auth.SessionMiddleware.
func CSRFProtection(csrf *auth.CSRFTokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			session := auth.GetSessionFromContext(r.Context())
			if session == nil {
				pkghttp.WriteUnauthorized(w, "Please log in to continue")
				return
			}

			token := r.Header.Get(auth.CSRFHeaderName)
			if !csrf.Validate(token, session.ID) {
				logger.Warn("CSRF token rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("username", session.Username),
					slog.Bool("missing", token == ""))
				pkghttp.WriteForbidden(w, "Invalid or missing CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
