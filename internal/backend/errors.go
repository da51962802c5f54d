package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

// errorMessage extracts the backend's {error} or {message} text from a failed response
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(payload.Message)
}

// IsRejected reports whether the backend answered with a client error (4xx),
// i.e. it understood the call and refused it.
func IsRejected(err error) bool {
	var se *models.ServerError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}

// IsNotFound reports a backend 404
func IsNotFound(err error) bool {
	var se *models.ServerError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsUnreachable reports a transport failure (no HTTP response at all)
func IsUnreachable(err error) bool {
	var ne *models.NetworkError
	return errors.As(err, &ne)
}

// IsMalformed reports a 2xx reply whose body could not be used
func IsMalformed(err error) bool {
	return errors.Is(err, models.ErrMalformedResponse)
}

// StatusFor maps a backend error to the status the console answers with:
// 4xx pass through, anything else becomes 502.
func StatusFor(err error) int {
	var se *models.ServerError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return se.StatusCode
	}
	return http.StatusBadGateway
}

// MessageFor returns the backend-supplied text, or fallback when there is none
func MessageFor(err error, fallback string) string {
	var se *models.ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
