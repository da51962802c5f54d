package routes_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/handlers"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/repositories"
	"github.com/espe-ciber/sentinel-console/internal/routes"
	"github.com/espe-ciber/sentinel-console/internal/services"
)

const secret = "routes-test-secret-0123456789abcdef"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend := &services.MockBackend{
		LoginFunc: func(ctx context.Context, creds models.Credentials) (*models.User, error) {
			switch creds.Username {
			case "alice":
				return &models.User{Username: "alice", Role: models.RoleUser}, nil
			case "root":
				return &models.User{Username: "root", Role: models.RoleAdmin}, nil
			}
			return nil, &models.ServerError{Op: "login", StatusCode: 401, Message: "Invalid credentials"}
		},
		PredictFunc: func(ctx context.Context, actor, message string) (models.OrderedRecord, error) {
			return models.NewOrderedRecord("clasificacion", "Normal")
		},
	}

	tokens := auth.NewTokenManager(secret)
	csrf := auth.NewCSRFTokenManager(secret)
	sessions := repositories.NewMemorySessionRepository()
	confirmations := services.NewConfirmationService(0, logger)
	history := services.NewHistoryService(backend, logger)
	reports := services.NewReportService(services.NewAuditAggregator(backend, time.UTC, logger), history, nil, nil, logger)
	users := services.NewUserService(backend, logger)
	authService := services.NewAuthService(
		backend,
		services.NewCredentialGate(services.DefaultCredentialGateConfig()),
		repositories.NewLoginAttemptRepository(),
		sessions,
		tokens,
		nil,
		logger,
		time.Hour,
	)
	cookies := auth.CookieConfig{SameSite: "Lax"}

	return routes.NewRouter(routes.Config{
		Env:      "development",
		Tokens:   tokens,
		Sessions: sessions,
		CSRF:     csrf,
		Logger:   logger,
	}, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, users, csrf, cookies, nil, logger),
		Users:         handlers.NewUserHandler(users, confirmations, logger),
		History:       handlers.NewHistoryHandler(history, reports, confirmations, logger),
		Predict:       handlers.NewPredictHandler(services.NewClassificationService(backend, logger), logger),
		Reports:       handlers.NewReportHandler(reports, logger),
		Confirmations: handlers.NewConfirmationHandler(confirmations, logger),
		Health:        handlers.NewHealthHandler(nil, nil),
	})
}

type client struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
	csrf    string
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.csrf != "" {
		req.Header.Set(auth.CSRFHeaderName, c.csrf)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c *client) login(username string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/login", `{"username":"`+username+`","password":"pw123"}`)
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.SessionResponse
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp))
	c.cookies = w.Result().Cookies()
	c.csrf = resp.CSRFToken
}

func TestRouter_PublicEndpoints(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/users", "").Code)
}

func TestRouter_UserSession(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	c.login("alice")

	w := c.do(http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/predict", `{"mensaje":"hello"}`).Code)
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/users", "").Code, "admin only")
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/dashboard", "").Code, "admin only")

	csrf := c.csrf
	c.csrf = ""
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/api/predict", `{"mensaje":"hello"}`).Code, "missing CSRF header")
	c.csrf = csrf

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/api/logout", "").Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/me", "").Code, "session deleted on logout")
}

func TestRouter_AdminSession(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}
	c.login("root")

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/dashboard?chart=pie", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/audit", "").Code)
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodDelete, "/api/users/admin", "").Code)

	w := c.do(http.MethodDelete, "/api/users/bob", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	var ticket models.ConfirmationTicket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))

	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/confirmations/"+ticket.ID+"/confirm", "").Code)
}

func TestRouter_LoginLockout(t *testing.T) {
	c := &client{t: t, router: newTestRouter(t)}

	w := c.do(http.MethodPost, "/api/login", `{"username":"mallory","password":"bad"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	c.cookies = w.Result().Cookies() // keep the gate cookie

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/api/login", `{"username":"mallory","password":"bad"}`).Code)

	w = c.do(http.MethodPost, "/api/login", `{"username":"mallory","password":"bad"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "15 minute(s)")

	// Even correct credentials are refused while locked
	w = c.do(http.MethodPost, "/api/login", `{"username":"alice","password":"pw123"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
