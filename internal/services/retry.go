package services

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

const maxAddAttempts = 3

// sleepFunc is swapped out in tests to observe backoff without waiting.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withBackoff runs fn up to maxAddAttempts times, sleeping 1s then 2s between
// attempts. It returns nil on the first success or the last error once the
// budget is exhausted. Used for per-track add calls so a transient failure
// costs a retry, not the track.
func withBackoff(ctx context.Context, logger *log.Logger, sleep sleepFunc, fn func() error) error {
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= maxAddAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Second << (attempt - 2)
			logger.Warn("retrying after failure", "attempt", attempt, "delay", delay, "error", err)
			if serr := sleep(ctx, delay); serr != nil {
				return serr
			}
		}

		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
