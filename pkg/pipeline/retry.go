package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// Run executes action under the policy: up to MaxAttempts executions with
// backoff between failures. The bound is exact; nothing triggers an extra
// execution. onRetry, when non-nil, is called before each backoff sleep.
// The returned count is how many executions actually happened.
func (p RetryPolicy) Run(ctx context.Context, action func(context.Context) error, onRetry func(attempt int, err error, delay time.Duration)) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		err := safeExecute(ctx, action)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if attempt < attempts {
			delay := p.Backoff.DelayForAttempt(attempt - 1)
			if onRetry != nil {
				onRetry(attempt, err, delay)
			}
			if !sleepWithContext(ctx, delay) {
				return attempt, ctx.Err()
			}
		}
	}
	return attempts, fmt.Errorf("after %d attempt(s): %w", attempts, lastErr)
}

// safeExecute isolates panics in a step action so a crashing step reports
// a failure instead of taking down the orchestrator.
func safeExecute(ctx context.Context, action func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panic: %v\n%s", r, debug.Stack())
		}
	}()
	return action(ctx)
}

// sleepWithContext sleeps for d, returning false when the context is
// cancelled first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
