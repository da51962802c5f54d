package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espe-ciber/sentinel-console/internal/handlers"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/services"
)

const historyJSON = `[
	{"id": 1, "usuario": "alice", "texto_original": "hola", "clasificacion": "Normal", "probabilidad": 0.91, "fecha_creacion": "2024-01-01"},
	{"id": 2, "usuario": "bob", "texto_original": "otro", "clasificacion": "CiberGrooming", "probabilidad": 0.77, "fecha_creacion": "2024-01-02"}
]`

func historyBackend(updated *models.HistoryUpdate) *services.MockBackend {
	return &services.MockBackend{
		ListHistoryFunc: func(ctx context.Context) ([]models.OrderedRecord, error) {
			var records []models.OrderedRecord
			err := json.Unmarshal([]byte(historyJSON), &records)
			return records, err
		},
		UpdateHistoryFunc: func(ctx context.Context, id string, upd models.HistoryUpdate) error {
			if updated != nil {
				*updated = upd
			}
			return nil
		},
	}
}

func newHistoryHandler(backend *services.MockBackend) (*handlers.HistoryHandler, *services.ConfirmationService) {
	logger := handlers.DiscardLogger()
	history := services.NewHistoryService(backend, logger)
	reports := services.NewReportService(
		services.NewAuditAggregator(backend, time.UTC, logger),
		history,
		nil,
		[]string{"probabilidad", "id", "fecha_creacion"},
		logger,
	)
	confirmations := services.NewConfirmationService(0, logger)
	return handlers.NewHistoryHandler(history, reports, confirmations, logger), confirmations
}

func TestHistoryHandler_List_PreservesKeyOrder(t *testing.T) {
	h, _ := newHistoryHandler(historyBackend(nil))

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/history?classification=cibergrooming", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"usuario":"bob"`)
	assert.NotContains(t, body, `"usuario":"alice"`)
	assert.Less(t, strings.Index(body, `"id"`), strings.Index(body, `"texto_original"`))
}

func TestHistoryHandler_Update(t *testing.T) {
	var updated models.HistoryUpdate
	h, confirmations := newHistoryHandler(historyBackend(&updated))

	t.Run("unknown classification", func(t *testing.T) {
		req := handlers.NewTestRequest(t, http.MethodPut, "/api/history/1", map[string]string{"texto_original": "x", "clasificacion": "Spam"})
		req = handlers.WithChiRouteContext(handlers.WithSessionContext(req, handlers.AdminSession), map[string]string{"id": "1"})
		w := httptest.NewRecorder()
		h.Update(w, req)
		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "validation_error", "")
	})

	t.Run("parked then confirmed", func(t *testing.T) {
		req := handlers.NewTestRequest(t, http.MethodPut, "/api/history/1", map[string]string{"texto_original": " nuevo ", "clasificacion": "Cibersexting"})
		req = handlers.WithChiRouteContext(handlers.WithSessionContext(req, handlers.AdminSession), map[string]string{"id": "1"})
		w := httptest.NewRecorder()
		h.Update(w, req)

		var ticket models.ConfirmationTicket
		handlers.AssertJSONResponse(t, w, http.StatusAccepted, &ticket)
		assert.Equal(t, models.ConfirmEditHistory, ticket.Kind)
		assert.Empty(t, updated.TextoOriginal)

		require.NoError(t, confirmations.Confirm(context.Background(), handlers.AdminSession, ticket.ID))
		assert.Equal(t, models.HistoryUpdate{TextoOriginal: "nuevo", Clasificacion: "Cibersexting"}, updated)
	})
}

func TestHistoryHandler_Delete_Parked(t *testing.T) {
	h, _ := newHistoryHandler(historyBackend(nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/history/2", nil)
	req = handlers.WithChiRouteContext(handlers.WithSessionContext(req, handlers.AdminSession), map[string]string{"id": "2"})
	w := httptest.NewRecorder()
	h.Delete(w, req)

	var ticket models.ConfirmationTicket
	handlers.AssertJSONResponse(t, w, http.StatusAccepted, &ticket)
	assert.Equal(t, models.ConfirmDeleteHistory, ticket.Kind)
	assert.Equal(t, "2", ticket.Target)
}

func TestHistoryHandler_Exports(t *testing.T) {
	h, _ := newHistoryHandler(historyBackend(nil))

	w := httptest.NewRecorder()
	h.ExportXLSX(w, httptest.NewRequest(http.MethodGet, "/api/history/export.xlsx?classification=Normal", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="historial_mensajes_Normal_`)

	w = httptest.NewRecorder()
	h.ExportPDF(w, httptest.NewRequest(http.MethodGet, "/api/history/export.pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestHistoryHandler_Export_BackendDown(t *testing.T) {
	backend := &services.MockBackend{ListHistoryFunc: func(ctx context.Context) ([]models.OrderedRecord, error) {
		return nil, &models.NetworkError{Op: "list history", Err: errors.New("refused")}
	}}
	h, _ := newHistoryHandler(backend)

	w := httptest.NewRecorder()
	h.ExportXLSX(w, httptest.NewRequest(http.MethodGet, "/api/history/export.xlsx", nil))
	handlers.AssertErrorResponse(t, w, http.StatusBadGateway, "backend_unreachable", "Error connecting to server")
}
