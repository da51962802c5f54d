package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/espe-ciber/sentinel-console/internal/dialog"
	"github.com/espe-ciber/sentinel-console/internal/models"
	pkglogger "github.com/espe-ciber/sentinel-console/pkg/logger"
)

// DefaultConfirmationTTL is how long a parked action waits for the user
const DefaultConfirmationTTL = 10 * time.Minute

type confirmation struct {
	ticket  models.ConfirmationTicket
	owner   string
	machine *dialog.Machine
}

// ConfirmationRequest describes a destructive action to park
type ConfirmationRequest struct {
	Kind   string
	Target string
	Prompt string
	Form   map[string]string
	Run    func(ctx context.Context) error
}

// ConfirmationService parks destructive actions behind a dialog per session
// and runs them once the same session confirms.
type ConfirmationService struct {
	mu      sync.Mutex
	items   map[string]*confirmation
	ttl     time.Duration
	logger  *slog.Logger
	actions *pkglogger.ActionLogger
	now     func() time.Time
}

func NewConfirmationService(ttl time.Duration, logger *slog.Logger) *ConfirmationService {
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	return &ConfirmationService{
		items:   make(map[string]*confirmation),
		ttl:     ttl,
		logger:  logger,
		actions: pkglogger.NewActionLogger(logger),
		now:     time.Now,
	}
}

// Request opens a dialog for the session and moves it to Confirming
func (s *ConfirmationService) Request(ctx context.Context, session *models.Session, req ConfirmationRequest) (*models.ConfirmationTicket, error) {
	if session == nil {
		return nil, models.ErrUnauthorized
	}

	m := dialog.New()
	if err := m.Open(req.Form); err != nil {
		return nil, err
	}
	if err := m.Submit(dialog.Pending{Kind: req.Kind, Target: req.Target, Prompt: req.Prompt, Run: req.Run}); err != nil {
		return nil, err
	}

	c := &confirmation{
		ticket: models.ConfirmationTicket{
			ID:        uuid.NewString(),
			Kind:      req.Kind,
			Target:    req.Target,
			Prompt:    req.Prompt,
			ExpiresAt: s.now().Add(s.ttl),
		},
		owner:   session.ID,
		machine: m,
	}

	s.mu.Lock()
	s.items[c.ticket.ID] = c
	s.mu.Unlock()

	ticket := c.ticket
	return &ticket, nil
}

// Confirm runs the parked action. Unknown, expired or foreign ids are
// models.ErrNotFound. The action runs at most once.
func (s *ConfirmationService) Confirm(ctx context.Context, session *models.Session, id string) error {
	c, err := s.take(session, id)
	if err != nil {
		return err
	}

	pending, err := c.machine.Confirm()
	if err != nil {
		return err
	}

	runErr := pending.Run(ctx)
	s.actions.Log(ctx, pkglogger.ActionEvent{
		Action:   "confirm_" + pending.Kind,
		Username: session.Username,
		Success:  runErr == nil,
		Reason:   errorReason(runErr),
		Metadata: map[string]string{"target": pending.Target},
	})
	if runErr != nil {
		return fmt.Errorf("%s %s: %w", pending.Kind, pending.Target, runErr)
	}
	return nil
}

// Cancel discards the parked action
func (s *ConfirmationService) Cancel(ctx context.Context, session *models.Session, id string) error {
	c, err := s.take(session, id)
	if err != nil {
		return err
	}
	return c.machine.Cancel()
}

// take removes and returns the session's confirmation
func (s *ConfirmationService) take(session *models.Session, id string) (*confirmation, error) {
	if session == nil {
		return nil, models.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok || c.owner != session.ID {
		return nil, models.ErrNotFound
	}
	delete(s.items, id)

	if !s.now().Before(c.ticket.ExpiresAt) {
		return nil, models.ErrNotFound
	}
	return c, nil
}

// DeleteExpired drops confirmations past their deadline
func (s *ConfirmationService) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, c := range s.items {
		if !now.Before(c.ticket.ExpiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

// Pending reports how many confirmations are waiting
func (s *ConfirmationService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func errorReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
