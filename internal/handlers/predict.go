package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/services"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// Classifier sends messages to the classification backend
type Classifier interface {
	Classify(ctx context.Context, session *models.Session, message string) (*services.Prediction, error)
}

// PredictHandler handles message classification for any logged-in user
type PredictHandler struct {
	service Classifier
	logger  *slog.Logger
}

// NewPredictHandler creates a new PredictHandler
func NewPredictHandler(service Classifier, logger *slog.Logger) *PredictHandler {
	return &PredictHandler{service: service, logger: logger}
}

// PredictRequest represents the request body for classification
type PredictRequest struct {
	Mensaje string `json:"mensaje"`
}

// Predict handles POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	prediction, err := h.service.Classify(r.Context(), auth.GetSessionFromContext(r.Context()), req.Mensaje)
	if err != nil {
		writeServiceError(w, h.logger, err, "Error analyzing the message")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, prediction)
}
