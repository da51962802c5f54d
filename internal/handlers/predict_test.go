package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/espe-ciber/sentinel-console/internal/handlers"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/services"
)

func TestPredictHandler(t *testing.T) {
	var gotActor string
	backend := &services.MockBackend{PredictFunc: func(ctx context.Context, actor, message string) (models.OrderedRecord, error) {
		gotActor = actor
		return models.NewOrderedRecord("resultado", "ok", "clasificacion", "CiberGrooming")
	}}
	h := handlers.NewPredictHandler(services.NewClassificationService(backend, handlers.DiscardLogger()), handlers.DiscardLogger())

	t.Run("blank message", func(t *testing.T) {
		req := handlers.WithSessionContext(handlers.NewTestRequest(t, http.MethodPost, "/api/predict", map[string]string{"mensaje": "   "}), handlers.UserSession)
		w := httptest.NewRecorder()
		h.Predict(w, req)
		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "validation_error", "Please enter a message in English.")
		assert.Empty(t, gotActor)
	})

	t.Run("classified as session user", func(t *testing.T) {
		req := handlers.WithSessionContext(handlers.NewTestRequest(t, http.MethodPost, "/api/predict", map[string]string{"mensaje": "hello"}), handlers.UserSession)
		w := httptest.NewRecorder()
		h.Predict(w, req)

		var resp map[string]any
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, "alice", gotActor)
		assert.Equal(t, "CiberGrooming", resp["clasificacion"])
		assert.Contains(t, resp, "advisory")
	})
}
