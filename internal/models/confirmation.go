package models

import "time"

// ConfirmationTicket is returned when a destructive request is parked until
// the user confirms it
type ConfirmationTicket struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	Prompt    string    `json:"prompt"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Confirmation kinds
const (
	ConfirmDeleteUser    = "delete_user"
	ConfirmDeleteHistory = "delete_history"
	ConfirmEditHistory   = "edit_history"
)
