package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/accounts"
	"github.com/kfd-o/mobile-firebase-backend/internal/config"
)

type Sweeper interface {
	SweepCleanup(ctx context.Context, limit int) (accounts.SweepResult, error)
}

// StartCleanupSweepJob retries queued account cleanups on every tick until
// ctx is done. It returns a channel closed when the loop exits.
func StartCleanupSweepJob(ctx context.Context, cfg config.Config, sweeper Sweeper, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if !cfg.CleanupJobEnabled || sweeper == nil {
		logger.Info("account cleanup job disabled")
		close(done)
		return done
	}
	interval := cfg.CleanupJobInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	timeout := cfg.CleanupJobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.CleanupBatchSize
	if limit <= 0 {
		limit = 50
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				res, err := sweeper.SweepCleanup(tickCtx, limit)
				cancel()
				if err != nil {
					logger.Error("account cleanup job error", zap.Error(err))
					continue
				}
				if res.Cleaned > 0 || res.Failed > 0 {
					logger.Info("account cleanup job finished",
						zap.Int("cleaned", res.Cleaned),
						zap.Int("failed", res.Failed),
					)
				}
			}
		}
	}()
	return done
}
