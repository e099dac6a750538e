package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// RunSweeper calls store.Sweep every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, store Store, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			removed, err := store.Sweep(ctx)
			if err != nil {
				logger.Warn("rate limit sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Debug("rate limit records swept", "removed", removed)
			}
		}
	}
}
