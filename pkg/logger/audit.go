package logger

import (
	"context"
	"log/slog"
	"time"
)

// ActionEvent is a console-side record of something an operator did
type ActionEvent struct {
	Action   string // login, logout, lockout, export, confirm, ...
	Username string
	IP       string
	Success  bool
	Reason   string
	Metadata map[string]string
}

// ActionLogger writes console action events. The backend keeps the
// authoritative audit trail; these lines correlate console traffic with it.
type ActionLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewActionLogger(logger *slog.Logger) *ActionLogger {
	return &ActionLogger{logger: logger, now: time.Now}
}

// Log records an event at Info on success and Warn otherwise
func (al *ActionLogger) Log(ctx context.Context, event ActionEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "console"),
		slog.String("action", event.Action),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.Username != "" {
		attrs = append(attrs, slog.String("username", event.Username))
	}
	if event.IP != "" {
		attrs = append(attrs, slog.String("ip_address", event.IP))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "console_action", attrs...)
}

// LogLogin records a login attempt outcome
func (al *ActionLogger) LogLogin(ctx context.Context, username, ip, outcome string) {
	al.Log(ctx, ActionEvent{
		Action:   "login",
		Username: username,
		IP:       ip,
		Success:  outcome == "success",
		Reason:   reasonUnlessSuccess(outcome),
	})
}

func reasonUnlessSuccess(outcome string) string {
	if outcome == "success" {
		return ""
	}
	return outcome
}
