package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/berth-tui/berth/internal/store"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence. Consecutive failures back the cadence off exponentially up
// to maxBackoff; the first success snaps it back. It returns immediately.
func StartPoller(ctx context.Context, st *store.Store, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		failures := 0
		for {
			err := st.RefreshAll(ctx)
			switch {
			case err == nil:
				failures = 0
			case errors.Is(err, store.ErrNotSetUp):
				// No session yet. Keep the base cadence and wait for the
				// connect flow to establish one.
				failures = 0
			default:
				failures++
				logger.Warn("background refresh failed",
					zap.Int("consecutive_failures", failures),
					zap.Error(err))
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// calculateBackoff doubles the base interval per consecutive failure, capped
// at maxBackoff. Zero failures yields the base interval.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
