package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/services"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// UserServiceInterface is the account management logic used by UserHandler
type UserServiceInterface interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, actor *models.Session, in models.UserInput) error
	Update(ctx context.Context, actor *models.Session, username string, in models.UserInput) error
	CheckDeletable(username string) error
	Delete(ctx context.Context, actor *models.Session, username string) error
}

// ConfirmationRequester parks destructive actions until the user confirms them
type ConfirmationRequester interface {
	Request(ctx context.Context, session *models.Session, req services.ConfirmationRequest) (*models.ConfirmationTicket, error)
}

// UserHandler handles account management (admin only)
type UserHandler struct {
	service       UserServiceInterface
	confirmations ConfirmationRequester
	logger        *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, confirmations ConfirmationRequester, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, confirmations: confirmations, logger: logger}
}

// CreateUserRequest represents the request body for creating an account
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

// UpdateUserRequest represents the request body for updating an account.
// A blank password keeps the current one.
type UpdateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Error loading users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	in := models.UserInput{Username: req.Username, Email: req.Email, Password: req.Password, Role: req.Role}
	if err := h.service.Create(r.Context(), auth.GetSessionFromContext(r.Context()), in); err != nil {
		writeServiceError(w, h.logger, err, "Error creating user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

// Update handles PUT /api/users/{username}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req UpdateUserRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	in := models.UserInput{Username: username, Email: req.Email, Password: req.Password, Role: req.Role}
	if err := h.service.Update(r.Context(), auth.GetSessionFromContext(r.Context()), username, in); err != nil {
		writeServiceError(w, h.logger, err, "Error updating user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
}

// Delete handles DELETE /api/users/{username}. The deletion is parked until
// the user confirms it; the protected admin account is refused up front.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		pkghttp.WriteBadRequest(w, "Username is required")
		return
	}
	if err := h.service.CheckDeletable(username); err != nil {
		writeServiceError(w, h.logger, err, "")
		return
	}

	session := auth.GetSessionFromContext(r.Context())
	ticket, err := h.confirmations.Request(r.Context(), session, services.ConfirmationRequest{
		Kind:   models.ConfirmDeleteUser,
		Target: username,
		Prompt: fmt.Sprintf("Are you sure you want to delete user %q?", username),
		Run: func(ctx context.Context) error {
			return h.service.Delete(ctx, session, username)
		},
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "")
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, ticket)
}
