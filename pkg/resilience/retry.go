package resilience

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds a retry loop's backoff and attempt count.
type RetryConfig struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries uint64
}

// DefaultRetryConfig backs off from 100ms up to 2s, capped at 5 retries
// after the first attempt —
// enough to ride out a transient blip without holding a request open
// longer than the outbound call's own timeout budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		MaxRetries: 5,
	}
}

// Do runs fn under exponential backoff with jitter, retrying only when fn
// returns a retryable error (wrap the cause with retry.RetryableError to opt
// in). Respects ctx cancellation between attempts.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(cfg.BaseDelay)
	backoff = retry.WithMaxRetries(cfg.MaxRetries, backoff)
	backoff = retry.WithCappedDuration(cfg.MaxDelay, backoff)
	backoff = retry.WithJitter(cfg.BaseDelay/2, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return fn(ctx)
	})
}

// RetryableError marks err so Do will retry it; non-wrapped errors are
// treated as permanent and stop the retry loop immediately.
func RetryableError(err error) error {
	return retry.RetryableError(err)
}
