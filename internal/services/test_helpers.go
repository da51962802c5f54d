package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

// MockBackend implements every backend interface the services consume
type MockBackend struct {
	LoginFunc         func(ctx context.Context, creds models.Credentials) (*models.User, error)
	ListUsersFunc     func(ctx context.Context) ([]models.User, error)
	CreateUserFunc    func(ctx context.Context, in models.UserInput) error
	UpdateUserFunc    func(ctx context.Context, username string, in models.UserInput) error
	DeleteUserFunc    func(ctx context.Context, username string) error
	PredictFunc       func(ctx context.Context, actor, message string) (models.OrderedRecord, error)
	ListHistoryFunc   func(ctx context.Context) ([]models.OrderedRecord, error)
	UpdateHistoryFunc func(ctx context.Context, id string, upd models.HistoryUpdate) error
	DeleteHistoryFunc func(ctx context.Context, id string) error
	ListAuditFunc     func(ctx context.Context) ([]models.AuditRecord, error)
}

func (m *MockBackend) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, &models.ServerError{Op: "login", StatusCode: 401}
}

func (m *MockBackend) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return []models.User{}, nil
}

func (m *MockBackend) CreateUser(ctx context.Context, in models.UserInput) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, in)
	}
	return nil
}

func (m *MockBackend) UpdateUser(ctx context.Context, username string, in models.UserInput) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, username, in)
	}
	return nil
}

func (m *MockBackend) DeleteUser(ctx context.Context, username string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, username)
	}
	return nil
}

func (m *MockBackend) Predict(ctx context.Context, actor, message string) (models.OrderedRecord, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, actor, message)
	}
	return models.OrderedRecord{}, nil
}

func (m *MockBackend) ListHistory(ctx context.Context) ([]models.OrderedRecord, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx)
	}
	return []models.OrderedRecord{}, nil
}

func (m *MockBackend) UpdateHistory(ctx context.Context, id string, upd models.HistoryUpdate) error {
	if m.UpdateHistoryFunc != nil {
		return m.UpdateHistoryFunc(ctx, id, upd)
	}
	return nil
}

func (m *MockBackend) DeleteHistory(ctx context.Context, id string) error {
	if m.DeleteHistoryFunc != nil {
		return m.DeleteHistoryFunc(ctx, id)
	}
	return nil
}

func (m *MockBackend) ListAudit(ctx context.Context) ([]models.AuditRecord, error) {
	if m.ListAuditFunc != nil {
		return m.ListAuditFunc(ctx)
	}
	return []models.AuditRecord{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
