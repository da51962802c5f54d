package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/espe-ciber/sentinel-console/internal/models"
	pkglogger "github.com/espe-ciber/sentinel-console/pkg/logger"
)

// HistoryBackend is the backend's classification history API
type HistoryBackend interface {
	ListHistory(ctx context.Context) ([]models.OrderedRecord, error)
	UpdateHistory(ctx context.Context, id string, upd models.HistoryUpdate) error
	DeleteHistory(ctx context.Context, id string) error
}

// HistoryService reviews and edits past classifications
type HistoryService struct {
	backend HistoryBackend
	logger  *slog.Logger
	actions *pkglogger.ActionLogger
}

func NewHistoryService(backend HistoryBackend, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		backend: backend,
		logger:  logger,
		actions: pkglogger.NewActionLogger(logger),
	}
}

// List returns history entries filtered by classification. An empty filter or
// "All" keeps everything.
func (s *HistoryService) List(ctx context.Context, classification string) ([]models.OrderedRecord, error) {
	records, err := s.backend.ListHistory(ctx)
	if err != nil {
		s.logger.Error("failed to list history", slog.Any("error", err))
		return nil, err
	}
	return FilterHistory(records, classification), nil
}

// FilterHistory keeps records whose clasificacion matches, case-insensitively
func FilterHistory(records []models.OrderedRecord, classification string) []models.OrderedRecord {
	classification = strings.TrimSpace(classification)
	if classification == "" || strings.EqualFold(classification, string(models.ActionAll)) {
		return records
	}

	out := make([]models.OrderedRecord, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(r.String("clasificacion"), classification) {
			out = append(out, r)
		}
	}
	return out
}

// ValidateUpdate requires text and a known classification label
func ValidateUpdate(upd models.HistoryUpdate) (models.HistoryUpdate, error) {
	upd.TextoOriginal = strings.TrimSpace(upd.TextoOriginal)
	upd.Clasificacion = strings.TrimSpace(upd.Clasificacion)
	if upd.TextoOriginal == "" || upd.Clasificacion == "" {
		return upd, models.ErrEmptyField
	}
	for _, c := range models.Classifications {
		if c == upd.Clasificacion {
			return upd, nil
		}
	}
	return upd, fmt.Errorf("%w: unknown classification %q", models.ErrBadRequest, upd.Clasificacion)
}

// Update edits an entry after validating it
func (s *HistoryService) Update(ctx context.Context, actor *models.Session, id string, upd models.HistoryUpdate) error {
	upd, err := ValidateUpdate(upd)
	if err != nil {
		return err
	}

	err = s.backend.UpdateHistory(ctx, id, upd)
	s.logAction(ctx, actor, "edit_history", id, err)
	return err
}

// Delete removes an entry
func (s *HistoryService) Delete(ctx context.Context, actor *models.Session, id string) error {
	err := s.backend.DeleteHistory(ctx, id)
	s.logAction(ctx, actor, "delete_history", id, err)
	return err
}

func (s *HistoryService) logAction(ctx context.Context, actor *models.Session, action, id string, err error) {
	event := pkglogger.ActionEvent{
		Action:   action,
		Success:  err == nil,
		Reason:   errorReason(err),
		Metadata: map[string]string{"history_id": id},
	}
	if actor != nil {
		event.Username = actor.Username
	}
	s.actions.Log(ctx, event)
}
