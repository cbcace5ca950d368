package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const cleanupTimeout = 30 * time.Second

// ResetOTPStore clears reset codes that expired before a cutoff.
type ResetOTPStore interface {
	ClearExpiredResetOTPs(ctx context.Context, before time.Time) (int64, error)
}

// CleanupManager periodically clears stale password reset codes. A code
// stays in place for grace after it expires so that a late reset attempt
// still reports "expired" rather than "invalid".
type CleanupManager struct {
	store    ResetOTPStore
	logger   *slog.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewCleanupManager(store ResetOTPStore, logger *slog.Logger, interval, grace time.Duration) *CleanupManager {
	return &CleanupManager{
		store:    store,
		logger:   logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a cleanup immediately and then on every tick until Stop is
// called or ctx is done. It blocks.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	cleared, err := cm.store.ClearExpiredResetOTPs(cleanupCtx, cm.now().Add(-cm.grace))
	if err != nil {
		cm.logger.Error("failed to clear expired reset OTPs", slog.Any("error", err))
		return
	}

	if cleared > 0 {
		cm.logger.Info("expired reset OTPs cleared", slog.Int64("rows_updated", cleared))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
