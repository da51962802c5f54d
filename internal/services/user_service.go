package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/espe-ciber/sentinel-console/internal/models"
	pkglogger "github.com/espe-ciber/sentinel-console/pkg/logger"
)

// UserBackend is the backend's account API
type UserBackend interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) error
	UpdateUser(ctx context.Context, username string, in models.UserInput) error
	DeleteUser(ctx context.Context, username string) error
}

// UserService handles registration and account management
type UserService struct {
	backend UserBackend
	logger  *slog.Logger
	actions *pkglogger.ActionLogger
}

func NewUserService(backend UserBackend, logger *slog.Logger) *UserService {
	return &UserService{
		backend: backend,
		logger:  logger,
		actions: pkglogger.NewActionLogger(logger),
	}
}

// Register creates a self-service account. The role is always user.
func (s *UserService) Register(ctx context.Context, username, email, password, ip string) error {
	in := models.UserInput{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     models.RoleUser,
	}
	if in.Username == "" || in.Email == "" || strings.TrimSpace(password) == "" {
		return models.ErrEmptyField
	}

	err := s.backend.CreateUser(ctx, in)
	s.actions.Log(ctx, pkglogger.ActionEvent{
		Action:   "register",
		Username: in.Username,
		IP:       ip,
		Success:  err == nil,
		Reason:   errorReason(err),
	})
	return err
}

// List returns every account
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, err
	}
	return users, nil
}

// Create adds an account on behalf of an administrator. A password is required.
func (s *UserService) Create(ctx context.Context, actor *models.Session, in models.UserInput) error {
	in = normalizeUserInput(in)
	if in.Password == "" {
		return models.ErrPasswordRequired
	}

	err := s.backend.CreateUser(ctx, in)
	s.logAdminAction(ctx, actor, "create_user", in.Username, err)
	return err
}

// Update changes an account. A blank password keeps the current one.
func (s *UserService) Update(ctx context.Context, actor *models.Session, username string, in models.UserInput) error {
	in = normalizeUserInput(in)
	if in.Username == "" {
		in.Username = username
	}

	err := s.backend.UpdateUser(ctx, username, in)
	s.logAdminAction(ctx, actor, "update_user", username, err)
	return err
}

// CheckDeletable rejects the protected administrator account
func (s *UserService) CheckDeletable(username string) error {
	if strings.EqualFold(strings.TrimSpace(username), models.ProtectedUsername) {
		return models.ErrProtectedUser
	}
	return nil
}

// Delete removes an account. The protected account is refused before the backend is called.
func (s *UserService) Delete(ctx context.Context, actor *models.Session, username string) error {
	if err := s.CheckDeletable(username); err != nil {
		return err
	}

	err := s.backend.DeleteUser(ctx, username)
	s.logAdminAction(ctx, actor, "delete_user", username, err)
	return err
}

func (s *UserService) logAdminAction(ctx context.Context, actor *models.Session, action, target string, err error) {
	event := pkglogger.ActionEvent{
		Action:   action,
		Success:  err == nil,
		Reason:   errorReason(err),
		Metadata: map[string]string{"target_user": target},
	}
	if actor != nil {
		event.Username = actor.Username
	}
	s.actions.Log(ctx, event)
}

func normalizeUserInput(in models.UserInput) models.UserInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	if in.Role != models.RoleAdmin {
		in.Role = models.RoleUser
	}
	return in
}
