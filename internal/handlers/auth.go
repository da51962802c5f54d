package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/services"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// gateCookieTTL keeps the browser's gate id long enough to outlive any lockout
const gateCookieTTL = 30 * 24 * time.Hour

// AuthServiceInterface defines the login/logout business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, gateKey, ip, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, session *models.Session, ip string) error
}

// RegistrationService creates self-service accounts
type RegistrationService interface {
	Register(ctx context.Context, username, email, password, ip string) error
}

// AuthHandler handles login, logout, session introspection and registration
type AuthHandler struct {
	service  AuthServiceInterface
	users    RegistrationService
	csrf     *auth.CSRFTokenManager
	cookies  auth.CookieConfig
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	service AuthServiceInterface,
	users RegistrationService,
	csrf *auth.CSRFTokenManager,
	cookies auth.CookieConfig,
	ipConfig *pkghttp.IPConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:  service,
		users:    users,
		csrf:     csrf,
		cookies:  cookies,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Request DTOs

// LoginRequest is checked by the credential gate, not the validator,
// so blank and unsafe input get the gate's messages.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// SessionResponse describes the logged-in user to the UI
type SessionResponse struct {
	User      models.User `json:"user"`
	CSRFToken string      `json:"csrf_token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	gateKey := h.gateKey(w, r)
	ip := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), gateKey, ip, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, msgLoginFailed)
		return
	}

	csrfToken := h.csrf.Token(result.Session.ID)
	auth.SetSessionCookie(w, result.Token, result.Session.ExpiresAt, h.cookies)
	auth.SetCSRFCookie(w, csrfToken, result.Session.ExpiresAt, h.cookies)

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{
		User:      result.Session.User(),
		CSRFToken: csrfToken,
		ExpiresAt: result.Session.ExpiresAt,
	})
}

// gateKey returns the browser's gate id, issuing a fresh one when the cookie
// is missing or malformed
func (h *AuthHandler) gateKey(w http.ResponseWriter, r *http.Request) string {
	if key := auth.CookieValue(r, auth.GateCookieName); key != "" {
		if _, err := uuid.Parse(key); err == nil {
			return key
		}
	}
	key := uuid.NewString()
	auth.SetGateCookie(w, key, time.Now().Add(gateCookieTTL), h.cookies)
	return key
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r.Context())
	if session != nil {
		if err := h.service.Logout(r.Context(), session, pkghttp.ExtractClientIP(r, h.ipConfig)); err != nil {
			h.logger.Error("failed to delete session", slog.Any("error", err))
		}
	}

	auth.ClearSessionCookies(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me and refreshes the CSRF cookie
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r.Context())
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Please log in to continue")
		return
	}

	csrfToken := h.csrf.Token(session.ID)
	auth.SetCSRFCookie(w, csrfToken, session.ExpiresAt, h.cookies)

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{
		User:      session.User(),
		CSRFToken: csrfToken,
		ExpiresAt: session.ExpiresAt,
	})
}

// Register handles POST /api/register. The account is always created with role user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	err := h.users.Register(r.Context(), req.Username, req.Email, req.Password, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, h.logger, err, "Registration failed")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully, you can login now.",
	})
}
