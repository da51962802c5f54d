package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Credential validation errors
	ErrEmptyField  = errors.New("all fields are required")
	ErrUnsafeInput = errors.New("input contains invalid or unsafe characters")

	// Console input errors
	ErrEmptyMessage     = errors.New("please enter a message in English")
	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrBadRequest)
	ErrProtectedUser    = fmt.Errorf("%w: the admin account cannot be deleted", ErrForbidden)

	// Session errors
	ErrSessionExpired = errors.New("session expired")

	// Delivery errors
	ErrDeliveryDisabled = errors.New("report delivery is not configured")

	// ErrMalformedResponse marks a 2xx backend reply the console could not use
	ErrMalformedResponse = errors.New("malformed backend response")
)

// LockedOutError is returned while a lockout window is active
type LockedOutError struct {
	RemainingMinutes int
	ExpiresAt        time.Time
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("Too many failed attempts. Please try again in %d minute(s).", e.RemainingMinutes)
}

// LoginFailedError is a login the backend refused. Message is shown to the user.
type LoginFailedError struct {
	Message     string
	FailedCount int
}

func (e *LoginFailedError) Error() string {
	return e.Message
}

func (e *LoginFailedError) Unwrap() error {
	return ErrUnauthorized
}

// NetworkError means the backend could not be reached at all
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend %s: connection failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response from the backend. Message carries the
// backend-supplied error text when there was one.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %s: status %d", e.Op, e.StatusCode)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// FetchError wraps a failure to load audit records
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load audit records: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExportError wraps any failure while building a spreadsheet or document
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to build %s export: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a client-detectable input error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyField) || errors.Is(err, ErrUnsafeInput) || errors.Is(err, ErrBadRequest)
}
