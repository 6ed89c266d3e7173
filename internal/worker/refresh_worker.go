package worker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Refresher reloads stale cached pages.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartRefreshWorker reloads stale pages every interval until ctx ends. The
// returned channel is closed once the loop exits.
func StartRefreshWorker(ctx context.Context, refresher Refresher, clock clockwork.Clock, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if refresher == nil || interval <= 0 {
		close(done)
		return done
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := clock.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := refresher.Refresh(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("cache refresh failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
