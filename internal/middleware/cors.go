package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/espe-ciber/sentinel-console/internal/auth"
)

// CORS allows the console UI origins to call the API with cookies.
// Only explicitly configured origins are allowed; an empty list allows none.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.CSRFHeaderName},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(allowedOrigins) == 0 {
		// go-chi/cors treats an empty list as "*"
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
	}
	return cors.Handler(opts)
}
