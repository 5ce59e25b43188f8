package services

import (
	"context"
	"log"
	"time"
)

// RetryPolicy wraps a fallible external call with bounded retries and
// exponential backoff. One shared policy value serves every client; the
// per-call work is just a closure.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewRetryPolicy returns a policy with the given attempt limit and base
// delay; the delay doubles after every failed attempt.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Do runs fn up to MaxAttempts times, sleeping BaseDelay, 2*BaseDelay,
// 4*BaseDelay... between attempts. The last error is returned unchanged once
// attempts are exhausted. The operation name is only used in log lines.
func (p *RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		log.Printf("%s failed (attempt %d/%d), retrying in %s: %v",
			operation, attempt, p.MaxAttempts, delay, lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	log.Printf("%s failed after %d attempts: %v", operation, p.MaxAttempts, lastErr)
	return lastErr
}
