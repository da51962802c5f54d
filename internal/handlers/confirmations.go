package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/models"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// ConfirmationServiceInterface resolves parked actions
type ConfirmationServiceInterface interface {
	Confirm(ctx context.Context, session *models.Session, id string) error
	Cancel(ctx context.Context, session *models.Session, id string) error
}

// ConfirmationHandler confirms or cancels parked destructive actions
type ConfirmationHandler struct {
	service ConfirmationServiceInterface
	logger  *slog.Logger
}

// NewConfirmationHandler creates a new ConfirmationHandler
func NewConfirmationHandler(service ConfirmationServiceInterface, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{service: service, logger: logger}
}

// Confirm handles POST /api/confirmations/{id}/confirm
func (h *ConfirmationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	err := h.service.Confirm(r.Context(), auth.GetSessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "The action could not be completed")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Action completed"})
}

// Cancel handles POST /api/confirmations/{id}/cancel
func (h *ConfirmationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), auth.GetSessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
