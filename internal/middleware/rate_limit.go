package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DefaultAuthRateLimit is applied to login and registration: 10 requests per minute per IP.
// The credential gate's lockout is the primary brake on guessing; this only caps raw volume.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{Requests: 10, Window: time.Minute}
}

// DefaultExportRateLimit caps PDF/xlsx generation per IP
func DefaultExportRateLimit() RateLimitConfig {
	return RateLimitConfig{Requests: 20, Window: time.Minute}
}

// RateLimitByIP limits requests per client IP. Forwarding headers only
// count when the peer is one of ipConfig's trusted proxies.
func RateLimitByIP(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many requests, please slow down")
		}),
	)
}
