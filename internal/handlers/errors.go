package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/espe-ciber/sentinel-console/internal/backend"
	"github.com/espe-ciber/sentinel-console/internal/models"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// User-facing messages
const (
	msgAllFieldsRequired = "All fields are required"
	msgUnsafeInput       = "Input contains invalid or unsafe characters."
	msgLoginFailed       = "Login failed"
	msgUnreachable       = "Error connecting to server"
	msgEmptyMessage      = "Please enter a message in English."
	msgExportFailed      = "The file could not be generated. Please try again."
	msgFetchFailed       = "Unable to load audit records."
	msgNotFound          = "The requested item was not found or has expired"
	msgInternal          = "Internal server error"
)

// writeServiceError maps service and backend errors onto API responses.
// fallback is shown when the backend rejected a call without a message.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	var (
		lockedErr *models.LockedOutError
		loginErr  *models.LoginFailedError
		exportErr *models.ExportError
		fetchErr  *models.FetchError
		netErr    *models.NetworkError
		serverErr *models.ServerError
	)

	switch {
	case errors.As(err, &lockedErr):
		pkghttp.WriteLockedOut(w, lockedErr.RemainingMinutes, lockedErr.Error())
	case errors.As(err, &loginErr):
		pkghttp.WriteUnauthorized(w, loginErr.Message)
	case errors.Is(err, models.ErrEmptyField):
		pkghttp.WriteValidationError(w, msgAllFieldsRequired)
	case errors.Is(err, models.ErrUnsafeInput):
		pkghttp.WriteValidationError(w, msgUnsafeInput)
	case errors.Is(err, models.ErrEmptyMessage):
		pkghttp.WriteValidationError(w, msgEmptyMessage)
	case errors.Is(err, models.ErrPasswordRequired):
		pkghttp.WriteValidationError(w, "Password is required")
	case errors.Is(err, models.ErrProtectedUser):
		pkghttp.WriteForbidden(w, "The admin user cannot be deleted")
	case errors.Is(err, models.ErrDeliveryDisabled):
		pkghttp.WriteServiceUnavailable(w, "Report e-mail delivery is not configured")
	case errors.As(err, &exportErr):
		logger.Error("export failed", slog.String("format", exportErr.Format), slog.Any("error", err))
		pkghttp.WriteError(w, http.StatusInternalServerError, "export_failed", msgExportFailed)
	case errors.As(err, &fetchErr):
		pkghttp.WriteBadGateway(w, msgFetchFailed)
	case errors.As(err, &netErr):
		logger.Warn("backend unreachable", slog.String("op", netErr.Op), slog.Any("error", err))
		pkghttp.WriteBadGateway(w, msgUnreachable)
	case errors.As(err, &serverErr):
		status := backend.StatusFor(err)
		if status == http.StatusBadGateway {
			logger.Error("backend error", slog.String("op", serverErr.Op), slog.Int("status", serverErr.StatusCode))
			pkghttp.WriteError(w, status, "backend_error", backend.MessageFor(err, fallback))
			return
		}
		pkghttp.WriteError(w, status, backendErrorCode(status), backend.MessageFor(err, fallback))
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, msgNotFound)
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Please log in to continue")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You do not have permission to do that")
	default:
		logger.Error("unexpected error", slog.Any("error", err))
		pkghttp.WriteInternalError(w, msgInternal)
	}
}

func backendErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "backend_rejected"
	}
}
