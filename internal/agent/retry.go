package agent

import (
	"context"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/logger"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// Retrier re-runs model operations that fail transiently. The wait
// between attempts grows linearly: attempt n sleeps n times BaseDelay.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do runs fn up to MaxAttempts times and returns the last error when
// every attempt failed. Terminal validation errors abort immediately:
// retrying a duplicate invoice or an empty question cannot change the
// outcome. Context cancellation during a wait stops the loop.
func (r Retrier) Do(ctx context.Context, name string, fn func() error) error {
	log := logger.FromContext(ctx)
	attempts := r.attempts()
	delay := r.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if domain.IsTerminal(lastErr) {
			return lastErr
		}

		log.Warn().
			Err(lastErr).
			Str("operation", name).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("attempt failed")

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * delay):
			}
		}
	}

	return lastErr
}

func (r Retrier) attempts() int {
	if r.MaxAttempts < 1 {
		return defaultMaxAttempts
	}
	return r.MaxAttempts
}
