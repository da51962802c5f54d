package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper removes entries that expired before now
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdleSweeper removes entries untouched since before
type IdleSweeper interface {
	DeleteIdle(ctx context.Context, before time.Time) (int64, error)
}

// CleanupManager periodically evicts expired sessions, expired confirmations
// and idle credential gate entries
type CleanupManager struct {
	sessions      Sweeper
	confirmations Sweeper
	gates         IdleSweeper
	gateIdleTTL   time.Duration
	logger        *slog.Logger
	interval      time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewCleanupManager creates a new cleanup manager. Any sweeper may be nil.
func NewCleanupManager(
	sessions Sweeper,
	confirmations Sweeper,
	gates IdleSweeper,
	gateIdleTTL time.Duration,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		sessions:      sessions,
		confirmations: confirmations,
		gates:         gates,
		gateIdleTTL:   gateIdleTTL,
		logger:        logger,
		interval:      interval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start runs the cleanup loop until ctx is cancelled or Stop is called
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single sweep of every configured store
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := cm.now()

	if cm.sessions != nil {
		removed, err := cm.sessions.DeleteExpired(cleanupCtx, now)
		cm.report("sessions", removed, err)
	}
	if cm.confirmations != nil {
		removed, err := cm.confirmations.DeleteExpired(cleanupCtx, now)
		cm.report("confirmations", removed, err)
	}
	if cm.gates != nil {
		removed, err := cm.gates.DeleteIdle(cleanupCtx, now.Add(-cm.gateIdleTTL))
		cm.report("gates", removed, err)
	}
}

func (cm *CleanupManager) report(store string, removed int64, err error) {
	if err != nil {
		cm.logger.Error("cleanup failed", slog.String("store", store), slog.Any("error", err))
		return
	}
	if removed > 0 {
		cm.logger.Info("cleanup completed", slog.String("store", store), slog.Int64("removed", removed))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
