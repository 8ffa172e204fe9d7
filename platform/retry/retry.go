// Package retry provides the backoff policy for idempotent reads against
// unreliable backends. The policy is pure: it owns no loading-state flags,
// callers observe attempts through the optional OnRetry hook.
package retry

import (
	"context"
	"time"

	"fieldtech_backend/platform/apperr"

	"github.com/sethvargo/go-retry"
)

// Policy retries transient backend failures with exponential backoff.
// Authoritative failures (4xx-style) and transport failures pass through
// untouched on the first attempt.
type Policy struct {
	maxRetries uint64
	base       time.Duration

	// OnRetry is invoked before each retry sleep with the attempt number
	// (1-based) and the error that triggered it.
	OnRetry func(attempt int, err error)
}

// NewPolicy creates a retry policy. With maxRetries=2 and base=2s the
// resulting schedule is {2s, 4s}.
func NewPolicy(maxRetries int, base time.Duration) *Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Policy{
		maxRetries: uint64(maxRetries),
		base:       base,
	}
}

// Do runs op, retrying only errors classified as transient by apperr.
// The last error is returned unwrapped so callers keep its Kind.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(p.base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !apperr.IsRetryable(err) {
			return err
		}
		attempt++
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		return retry.RetryableError(err)
	})
}
