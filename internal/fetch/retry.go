package fetch

import (
	"context"
	"time"

	"github.com/cigarscout/cigarscout/pkg/errors"
)

// retry runs fn up to maxAttempts times, doubling the delay between
// attempts. It stops early on success, on a non-transient error, or when
// the context is done. The last error is returned as-is so callers keep
// the typed fetch error for classification.
func retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !errors.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}
