package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

// Predictor classifies a message on behalf of a user
type Predictor interface {
	Predict(ctx context.Context, actor, message string) (models.OrderedRecord, error)
}

// Prediction is the backend result plus console guidance for its label
type Prediction struct {
	Result         models.OrderedRecord `json:"result"`
	Classification string               `json:"clasificacion"`
	Advisory       models.Advisory      `json:"advisory"`
}

type ClassificationService struct {
	predictor Predictor
	logger    *slog.Logger
}

func NewClassificationService(predictor Predictor, logger *slog.Logger) *ClassificationService {
	return &ClassificationService{predictor: predictor, logger: logger}
}

// Classify sends message to the backend as the session's user
func (s *ClassificationService) Classify(ctx context.Context, session *models.Session, message string) (*Prediction, error) {
	if session == nil {
		return nil, models.ErrUnauthorized
	}
	if strings.TrimSpace(message) == "" {
		return nil, models.ErrEmptyMessage
	}

	result, err := s.predictor.Predict(ctx, session.Username, message)
	if err != nil {
		s.logger.Warn("classification failed",
			slog.String("username", session.Username),
			slog.Any("error", err))
		return nil, err
	}

	label := result.String("clasificacion")
	return &Prediction{
		Result:         result,
		Classification: label,
		Advisory:       models.AdvisoryFor(label),
	}, nil
}
