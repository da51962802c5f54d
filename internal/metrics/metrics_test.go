package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandler_ExposesConsoleCollectors(t *testing.T) {
	LoginAttempts.WithLabelValues("failure").Inc()
	LockoutsTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "console_gate_login_attempts_total"))
	assert.True(t, strings.Contains(body, "console_gate_lockouts_total"))
}

func TestExportsTotal_CountsByResult(t *testing.T) {
	ExportsTotal.Reset()

	ExportsTotal.WithLabelValues("xlsx", Result(nil)).Inc()
	ExportsTotal.WithLabelValues("xlsx", Result(errors.New("boom"))).Inc()
	ExportsTotal.WithLabelValues("xlsx", Result(nil)).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(ExportsTotal.WithLabelValues("xlsx", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ExportsTotal.WithLabelValues("xlsx", "error")))
}
