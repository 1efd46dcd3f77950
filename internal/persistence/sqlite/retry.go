package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/room-booking/internal/errs"
)

// RetryConfig bounds how often a busy transaction is retried.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used by Open.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	delay := s.retry.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.DebugContext(ctx, "retrying busy sqlite transaction", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return errs.Wrap(ctx.Err(), "waiting to retry transaction")
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * s.retry.BackoffFactor)
			if delay > s.retry.MaxDelay {
				delay = s.retry.MaxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}
	}
	return errs.Wrapf(lastErr, "transaction still busy after %d retries", s.retry.MaxRetries)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
