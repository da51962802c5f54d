package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// HealthChecker is any dependency that can report whether it is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler reports the console's own health plus its required dependencies.
// Checks named in optional are reported but do not fail the probe.
type HealthHandler struct {
	required map[string]HealthChecker
	optional map[string]HealthChecker
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(required, optional map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{required: required, optional: optional, timeout: 2 * time.Second}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Checks: map[string]string{}}
	status := http.StatusOK

	for name, check := range h.required {
		if err := check.HealthCheck(ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	for name, check := range h.optional {
		if err := check.HealthCheck(ctx); err != nil {
			resp.Checks[name] = "down"
			continue
		}
		resp.Checks[name] = "up"
	}

	pkghttp.WriteJSON(w, status, resp)
}
