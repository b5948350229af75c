package shared

import (
	"fmt"
	"time"
)

// Retry budgets. The rate-limit budget and the transient budget are
// separate: a timed-out request counts against the transient budget only.
const (
	MaxRateLimitRetries = 5
	MaxTransientRetries = 3

	TransientBackoffStep = 750 * time.Millisecond
	RateLimitBackoffCap  = 10 * time.Second
)

// Sleeper abstracts time.Sleep so retry schedules can be tested without
// waiting out real delays.
type Sleeper func(time.Duration)

// RetryRateLimited runs fn until it succeeds, fails with a non-429 error,
// or the rate-limit retry budget is exhausted. A provider-supplied
// retry-after hint is honored, clamped to RateLimitBackoffCap; without a
// hint the delay doubles per attempt starting at one second.
func RetryRateLimited(maxRetries int, sleep Sleeper, fn func() error) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRateLimited(lastErr) {
			return lastErr
		}
		if attempt == maxRetries {
			break
		}
		delay := time.Second << uint(attempt)
		if httpErr, ok := AsHTTPError(lastErr); ok && httpErr.RetryAfter > 0 {
			delay = httpErr.RetryAfter
		}
		if delay > RateLimitBackoffCap {
			delay = RateLimitBackoffCap
		}
		sleep(delay)
	}
	return fmt.Errorf("rate limit retries exhausted after %d attempts: %w", maxRetries+1, lastErr)
}

// RetryTransient retries fn up to maxAttempts times with linear backoff
// (TransientBackoffStep x attempt). Only transient failures are retried;
// anything else is returned immediately. Intended for idempotent reads.
func RetryTransient(maxAttempts int, sleep Sleeper, isTransient func(error) bool, fn func() error) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	if isTransient == nil {
		isTransient = IsRetryableHTTPError
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		sleep(TransientBackoffStep * time.Duration(attempt))
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
