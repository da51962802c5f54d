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

// HistoryServiceInterface is the classification history logic used by HistoryHandler
type HistoryServiceInterface interface {
	List(ctx context.Context, classification string) ([]models.OrderedRecord, error)
	Update(ctx context.Context, actor *models.Session, id string, upd models.HistoryUpdate) error
	Delete(ctx context.Context, actor *models.Session, id string) error
}

// HistoryExporter renders history exports
type HistoryExporter interface {
	HistorySpreadsheet(ctx context.Context, classification string) (*services.Attachment, error)
	HistoryPDF(ctx context.Context, classification string) (*services.Attachment, error)
}

// HistoryHandler handles the classification history (admin only)
type HistoryHandler struct {
	service       HistoryServiceInterface
	exporter      HistoryExporter
	confirmations ConfirmationRequester
	logger        *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(service HistoryServiceInterface, exporter HistoryExporter, confirmations ConfirmationRequester, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, exporter: exporter, confirmations: confirmations, logger: logger}
}

// UpdateHistoryRequest represents an edit of one history entry
type UpdateHistoryRequest struct {
	TextoOriginal string `json:"texto_original" validate:"required"`
	Clasificacion string `json:"clasificacion" validate:"required,oneof=Normal Cibersexting CiberGrooming"`
}

// List handles GET /api/history?classification=
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context(), r.URL.Query().Get("classification"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Error loading history")
		return
	}
	if records == nil {
		records = []models.OrderedRecord{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, records)
}

// Update handles PUT /api/history/{id}. The edit is parked until confirmed.
func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req UpdateHistoryRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	upd, err := services.ValidateUpdate(models.HistoryUpdate{TextoOriginal: req.TextoOriginal, Clasificacion: req.Clasificacion})
	if err != nil {
		writeServiceError(w, h.logger, err, "")
		return
	}

	session := auth.GetSessionFromContext(r.Context())
	h.park(w, r, services.ConfirmationRequest{
		Kind:   models.ConfirmEditHistory,
		Target: id,
		Prompt: fmt.Sprintf("Save changes to history entry %s?", id),
		Form: map[string]string{
			"texto_original": upd.TextoOriginal,
			"clasificacion":  upd.Clasificacion,
		},
		Run: func(ctx context.Context) error {
			return h.service.Update(ctx, session, id, upd)
		},
	})
}

// Delete handles DELETE /api/history/{id}. The deletion is parked until confirmed.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	session := auth.GetSessionFromContext(r.Context())
	h.park(w, r, services.ConfirmationRequest{
		Kind:   models.ConfirmDeleteHistory,
		Target: id,
		Prompt: fmt.Sprintf("Are you sure you want to delete history entry %s?", id),
		Run: func(ctx context.Context) error {
			return h.service.Delete(ctx, session, id)
		},
	})
}

func (h *HistoryHandler) park(w http.ResponseWriter, r *http.Request, req services.ConfirmationRequest) {
	if req.Target == "" {
		pkghttp.WriteBadRequest(w, "History id is required")
		return
	}

	ticket, err := h.confirmations.Request(r.Context(), auth.GetSessionFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "")
		return
	}
	pkghttp.WriteJSON(w, http.StatusAccepted, ticket)
}

// ExportXLSX handles GET /api/history/export.xlsx?classification=
func (h *HistoryHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	att, err := h.exporter.HistorySpreadsheet(r.Context(), r.URL.Query().Get("classification"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Error loading history")
		return
	}
	writeAttachment(w, att)
}

// ExportPDF handles GET /api/history/export.pdf?classification=
func (h *HistoryHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	att, err := h.exporter.HistoryPDF(r.Context(), r.URL.Query().Get("classification"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Error loading history")
		return
	}
	writeAttachment(w, att)
}
