// Package poll implements bounded retry polling for "verify X is true" checks.
package poll

import (
	"context"
	"time"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
)

// Defaults used when a verification does not override them.
const (
	DefaultMaxAttempts = 10
	DefaultDelay       = 1000 * time.Millisecond
)

// Sleeper suspends the caller between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// RealSleeper waits on the wall clock and returns early with ctx.Err() when
// the context is cancelled.
var RealSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// Check evaluates a condition once.
type Check func(ctx context.Context) (bool, error)

// Options bounds a polling loop. Values are used as given; see DefaultOptions.
type Options struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultOptions returns 10 attempts one second apart.
func DefaultOptions() Options {
	return Options{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// Poller runs polling loops with an injected Sleeper.
type Poller struct {
	Sleeper Sleeper
}

// New returns a Poller using s, or RealSleeper when s is nil.
func New(s Sleeper) *Poller {
	if s == nil {
		s = RealSleeper
	}
	return &Poller{Sleeper: s}
}

// Until evaluates check at most opts.MaxAttempts times (at least once),
// sleeping opts.Delay between attempts but not after the last one.
//
// It returns true on the first positive result and false once attempts are
// exhausted. Recoverable check errors (transport failures, device query
// errors) count as negative attempts. Any other check error is returned as
// is, and a cancelled context stops the loop with ctx.Err().
func (p *Poller) Until(ctx context.Context, name string, check Check, opts Options) (bool, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		ok, err := check(ctx)
		switch {
		case err != nil && !core.IsRecoverable(err):
			return false, err
		case err != nil:
			logger.Warn("%s: attempt %d/%d failed: %v", name, attempt, maxAttempts, err)
		case ok:
			logger.Debug("%s: satisfied on attempt %d/%d", name, attempt, maxAttempts)
			return true, nil
		default:
			logger.Debug("%s: not yet satisfied (attempt %d/%d)", name, attempt, maxAttempts)
		}

		if attempt >= maxAttempts {
			logger.Info("%s: gave up after %d attempts", name, maxAttempts)
			return false, nil
		}
		if err := p.Sleeper.Sleep(ctx, opts.Delay); err != nil {
			return false, err
		}
	}
}

// Until runs a polling loop on the wall clock.
func Until(ctx context.Context, name string, check Check, opts Options) (bool, error) {
	return New(nil).Until(ctx, name, check, opts)
}
