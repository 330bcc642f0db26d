// Package retry provides bounded exponential backoff for transient
// failures, primarily store writes and provider transport errors.
package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// Config bounds a retry loop. Attempts counts total tries, not retries:
// Attempts=2 means one retry after the initial failure.
type Config struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// RetryIf decides whether an error is worth retrying. Nil retries
	// everything.
	RetryIf func(error) bool
}

// DefaultConfig retries once with a short backoff.
var DefaultConfig = Config{
	Attempts:  2,
	BaseDelay: 200 * time.Millisecond,
	MaxDelay:  5 * time.Second,
}

// Do runs op until it succeeds, the attempt budget is spent, or the
// context is cancelled. The last error is returned.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultConfig.MaxDelay
	}

	var err error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		if err = op(ctx); err == nil {
			return nil
		}
		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}
	}
	return err
}

// IsTransient reports whether an error looks like a transient network
// or timing failure that a retry could plausibly clear.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE)
}
