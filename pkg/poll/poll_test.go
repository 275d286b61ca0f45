package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

// recordingSleeper records requested delays without waiting
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *recordingSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range s.delays {
		sum += d
	}
	return sum
}

// TestUntilExhausted tests that an always-false check runs exactly maxAttempts times
func TestUntilExhausted(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	ok, err := New(sleeper).Until(context.Background(), "never", func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	}, Options{MaxAttempts: 10, Delay: time.Second})

	if err != nil {
		t.Fatalf("Until returned error: %v", err)
	}
	if ok {
		t.Error("Expected false after exhausting attempts")
	}
	if calls != 10 {
		t.Errorf("Expected 10 evaluations, got %d", calls)
	}
	if len(sleeper.delays) != 9 {
		t.Errorf("Expected 9 sleeps, got %d", len(sleeper.delays))
	}
	if sleeper.total() != 9*time.Second {
		t.Errorf("Expected 9s of suspension, got %v", sleeper.total())
	}
}

// TestUntilSucceedsEarly tests that the loop stops on the first positive result
func TestUntilSucceedsEarly(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	ok, err := New(sleeper).Until(context.Background(), "third time", func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	}, Options{MaxAttempts: 10, Delay: 500 * time.Millisecond})

	if err != nil || !ok {
		t.Fatalf("Expected success, got ok=%v err=%v", ok, err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 evaluations, got %d", calls)
	}
	if sleeper.total() != time.Second {
		t.Errorf("Expected 1s of suspension, got %v", sleeper.total())
	}
}

// TestUntilSwallowsRecoverableErrors tests that transient errors count as negative attempts
func TestUntilSwallowsRecoverableErrors(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	ok, err := New(sleeper).Until(context.Background(), "flaky", func(ctx context.Context) (bool, error) {
		calls++
		switch calls {
		case 1:
			return false, core.ErrTransport.WithCause(errors.New("connection refused"))
		case 2:
			return false, core.ErrDeviceQuery
		default:
			return true, nil
		}
	}, Options{MaxAttempts: 5, Delay: 0})

	if err != nil || !ok {
		t.Fatalf("Expected success, got ok=%v err=%v", ok, err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 evaluations, got %d", calls)
	}
}

// TestUntilRecoverableErrorsExhaust tests that persistent transient errors yield false, not an error
func TestUntilRecoverableErrorsExhaust(t *testing.T) {
	ok, err := New(&recordingSleeper{}).Until(context.Background(), "down", func(ctx context.Context) (bool, error) {
		return false, core.ErrTransport
	}, Options{MaxAttempts: 3})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if ok {
		t.Error("Expected false")
	}
}

// TestUntilPropagatesFatalErrors tests that non-recoverable errors stop the loop
func TestUntilPropagatesFatalErrors(t *testing.T) {
	calls := 0
	_, err := New(&recordingSleeper{}).Until(context.Background(), "fatal", func(ctx context.Context) (bool, error) {
		calls++
		return false, core.ErrMalformedResponse
	}, Options{MaxAttempts: 5})

	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 evaluation, got %d", calls)
	}
}

// TestUntilCancelled tests cooperative cancellation between attempts
func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	ok, err := New(&recordingSleeper{}).Until(ctx, "cancelled", func(ctx context.Context) (bool, error) {
		calls++
		cancel()
		return false, nil
	}, Options{MaxAttempts: 5, Delay: time.Second})

	if ok {
		t.Error("Expected false")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 evaluation, got %d", calls)
	}
}

// TestUntilZeroAttempts tests that at least one attempt is made
func TestUntilZeroAttempts(t *testing.T) {
	calls := 0
	ok, _ := New(&recordingSleeper{}).Until(context.Background(), "once", func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	}, Options{})

	if !ok || calls != 1 {
		t.Errorf("Expected a single successful attempt, got ok=%v calls=%d", ok, calls)
	}
}

// TestRealSleeper tests the wall-clock sleeper and its cancellation
func TestRealSleeper(t *testing.T) {
	start := time.Now()
	if err := RealSleeper.Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected at least 20ms, slept %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RealSleeper.Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestDefaultOptions tests the default tunables
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.MaxAttempts != 10 || opts.Delay != time.Second {
		t.Errorf("Expected 10 attempts / 1s, got %d / %v", opts.MaxAttempts, opts.Delay)
	}
}
