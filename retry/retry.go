// Package retry implements exponential backoff with jitter for the
// network boundaries of the vector-store, embedding, and generation
// clients.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy configures backoff timing.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultPolicy is the standard retry policy: up to 3 retries, 1s initial
// delay, factor 2.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retryable marks an error as eligible for retry (transient network/HTTP
// failures). Non-transient errors should NOT be wrapped and propagate
// immediately.
type Retryable struct {
	Err error
}

func (r *Retryable) Error() string { return r.Err.Error() }
func (r *Retryable) Unwrap() error { return r.Err }

// MarkRetryable wraps err so Do treats it as transient.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &Retryable{Err: err}
}

func isRetryable(err error) bool {
	var r *Retryable
	return errors.As(err, &r)
}

// Do runs fn, retrying on errors marked via MarkRetryable with exponential
// backoff and jitter. Non-retryable errors and context cancellation abort
// immediately. fn's own error (unwrapped) is returned on final failure.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return unwrapRetryable(err)
		}
		lastErr = err
		if attempt == policy.MaxAttempts {
			break
		}

		delay := backoffDelay(policy, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return unwrapRetryable(lastErr)
}

func backoffDelay(policy Policy, attempt int) time.Duration {
	d := float64(policy.BaseDelay) * pow(policy.BackoffFactor, attempt)
	if policy.MaxDelay > 0 && d > float64(policy.MaxDelay) {
		d = float64(policy.MaxDelay)
	}
	jitter := d * 0.2 * rand.Float64()
	return time.Duration(d + jitter)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func unwrapRetryable(err error) error {
	var r *Retryable
	if errors.As(err, &r) {
		return r.Err
	}
	return err
}
