// Package retry re-runs a failing operation with exponential backoff. It sits
// above the transport: senders fail fast and callers decide here whether and
// how often to try again.
package retry

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy describes how many times to try and how long to wait in between.
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Jitter   time.Duration
	Logger   *zap.Logger
}

// Do calls fn until it succeeds, the attempts are used up, or ctx is done.
// It returns nil on success, otherwise the last error from fn (or ctx.Err()
// when cancelled while waiting).
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.Initial
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxBackoff := p.Max
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	log := p.Logger
	if log == nil {
		log = zap.L()
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		wait := withJitter(backoff, p.Jitter)
		log.Warn("attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	return err
}

func withJitter(d, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(jitter)))
}
