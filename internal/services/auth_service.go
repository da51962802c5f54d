package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/backend"
	"github.com/espe-ciber/sentinel-console/internal/metrics"
	"github.com/espe-ciber/sentinel-console/internal/models"
	pkglogger "github.com/espe-ciber/sentinel-console/pkg/logger"
)

const loginFailedMessage = "Login failed"

// AuthBackend authenticates credentials against the classification backend
type AuthBackend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
}

// LoginAttemptStore holds per-browser gate state
type LoginAttemptStore interface {
	Get(ctx context.Context, key string) (models.LoginAttemptState, error)
	Update(ctx context.Context, key string, fn func(models.LoginAttemptState) models.LoginAttemptState) (models.LoginAttemptState, error)
}

// SessionStore persists console sessions
type SessionStore interface {
	Save(ctx context.Context, s *models.Session) error
	Load(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoginResult is a successful login: the stored session and its signed cookie token
type LoginResult struct {
	Session *models.Session
	Token   string
}

// AuthService runs the login sequence through the credential gate and
// manages the console session lifecycle.
type AuthService struct {
	backend    AuthBackend
	gate       *CredentialGate
	attempts   LoginAttemptStore
	sessions   SessionStore
	tokens     *auth.TokenManager
	timing     *auth.TimingDelay
	logger     *slog.Logger
	actions    *pkglogger.ActionLogger
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(
	backend AuthBackend,
	gate *CredentialGate,
	attempts LoginAttemptStore,
	sessions SessionStore,
	tokens *auth.TokenManager,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		backend:    backend,
		gate:       gate,
		attempts:   attempts,
		sessions:   sessions,
		tokens:     tokens,
		timing:     timing,
		logger:     logger,
		actions:    pkglogger.NewActionLogger(logger),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Login validates input, checks the lockout, calls the backend and records
// the outcome against the browser's gate state. Errors returned:
//   - models.ErrEmptyField / models.ErrUnsafeInput for rejected input
//   - *models.LockedOutError while locked, and on the failure that starts a lockout
//   - *models.LoginFailedError for refused credentials
//   - *models.NetworkError when the backend is unreachable or its reply unusable
//     (not counted as a failure)
func (s *AuthService) Login(ctx context.Context, gateKey, ip, username, password string) (*LoginResult, error) {
	start := s.now()
	username = strings.TrimSpace(username)

	result, outcome, err := s.login(ctx, gateKey, username, password, start)

	metrics.LoginAttempts.WithLabelValues(string(outcome)).Inc()
	s.actions.LogLogin(ctx, username, ip, string(outcome))
	s.timing.WaitFrom(ctx, start, err == nil)

	return result, err
}

func (s *AuthService) login(ctx context.Context, gateKey, username, password string, now time.Time) (*LoginResult, models.LoginOutcome, error) {
	if err := s.gate.ValidateCredentials(username, password); err != nil {
		return nil, models.LoginOutcomeInvalid, err
	}

	state, err := s.attempts.Get(ctx, gateKey)
	if err != nil {
		return nil, models.LoginOutcomeFailure, fmt.Errorf("failed to load gate state: %w", err)
	}
	if err := s.gate.CheckLockout(state, now); err != nil {
		return nil, models.LoginOutcomeLockedOut, err
	}

	user, err := s.backend.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		if backend.IsUnreachable(err) {
			s.logger.Warn("login backend unreachable", slog.String("error", err.Error()))
			return nil, models.LoginOutcomeUnreachable, err
		}
		if backend.IsMalformed(err) {
			s.logger.Warn("login backend reply unusable", slog.String("error", err.Error()))
			return nil, models.LoginOutcomeUnreachable, &models.NetworkError{Op: "login", Err: err}
		}
		return s.recordFailure(ctx, gateKey, backend.MessageFor(err, loginFailedMessage), now)
	}

	if _, err := s.attempts.Update(ctx, gateKey, func(st models.LoginAttemptState) models.LoginAttemptState {
		return s.gate.RecordSuccess(st, now)
	}); err != nil {
		return nil, models.LoginOutcomeFailure, fmt.Errorf("failed to reset gate state: %w", err)
	}

	session, token, err := s.startSession(ctx, user, now)
	if err != nil {
		return nil, models.LoginOutcomeFailure, err
	}
	return &LoginResult{Session: session, Token: token}, models.LoginOutcomeSuccess, nil
}

func (s *AuthService) recordFailure(ctx context.Context, gateKey, message string, now time.Time) (*LoginResult, models.LoginOutcome, error) {
	var before models.LoginAttemptState
	after, err := s.attempts.Update(ctx, gateKey, func(st models.LoginAttemptState) models.LoginAttemptState {
		before = st
		return s.gate.RecordFailure(st, now)
	})
	if err != nil {
		return nil, models.LoginOutcomeFailure, fmt.Errorf("failed to record login failure: %w", err)
	}

	if JustLocked(before, after) {
		metrics.LockoutsTotal.Inc()
		s.actions.Log(ctx, pkglogger.ActionEvent{
			Action:   "lockout",
			Reason:   "max_failures",
			Metadata: map[string]string{"failed_count": fmt.Sprint(after.FailedCount)},
		})
		return nil, models.LoginOutcomeLockedOut, s.gate.CheckLockout(after, now)
	}

	return nil, models.LoginOutcomeFailure, &models.LoginFailedError{Message: message, FailedCount: after.FailedCount}
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, now time.Time) (*models.Session, string, error) {
	role := user.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		Email:     user.Email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, "", err
	}
	return session, token, nil
}

// Logout clears the session. Unknown sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, session *models.Session, ip string) error {
	if session == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.actions.Log(ctx, pkglogger.ActionEvent{Action: "logout", Username: session.Username, IP: ip, Success: true})
	return nil
}
