// Package retry runs an operation a bounded number of times, retrying only
// the failures an explicit predicate accepts.
package retry

import (
	"context"
	"fmt"
)

// Policy bounds the attempts and decides which failures are worth repeating.
type Policy struct {
	// MaxAttempts caps the total number of calls, not the number of retries.
	// Values below one behave as a single attempt.
	MaxAttempts int

	// Retryable reports whether another attempt may succeed. A nil predicate
	// retries nothing.
	Retryable func(error) bool
}

// Do invokes fn until it succeeds, fails in a non-retryable way, or exhausts
// the attempt budget. There is no delay between attempts; ctx is only
// consulted between them. The last failure is returned unwrapped so callers
// can inspect it with errors.Is.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry interrupted after attempt %d: %w", attempt, err)
		}
	}
	return lastErr
}
