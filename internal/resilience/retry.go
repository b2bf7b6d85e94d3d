// Package resilience wraps outbound service calls with retry, exponential
// backoff and jitter. It knows nothing about what it is calling; each
// pipeline stage injects its own request function.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"
)

const (
	baseDelay      = 1 * time.Second
	maxDelay       = 32 * time.Second
	jitterFraction = 0.25
	// DefaultMaxAttempts bounds retries when Options does not override it.
	DefaultMaxAttempts = 3
)

// ErrorClass classifies a failed call so callers can tell configuration
// problems apart from transient ones.
type ErrorClass string

const (
	ClassRateLimited  ErrorClass = "RATE_LIMITED"
	ClassServerError  ErrorClass = "SERVER_ERROR"
	ClassAuthError    ErrorClass = "AUTH_ERROR"
	ClassNotFound     ErrorClass = "NOT_FOUND"
	ClassClientError  ErrorClass = "CLIENT_ERROR"
	ClassTimeout      ErrorClass = "TIMEOUT"
	ClassNetworkError ErrorClass = "NETWORK_ERROR"
	ClassUnknown      ErrorClass = "UNKNOWN_ERROR"
)

// StatusError is a non-success response from an external service. Stage
// executors convert whatever their client library returns into this so
// classification stays uniform.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Body)
}

// CallError is the terminal error raised by Call. It embeds the
// classification and the underlying cause, including the response text for
// status failures.
type CallError struct {
	Class    ErrorClass
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("call failed after %d attempts (%s): %v", e.Attempts, e.Class, e.Err)
	}
	return fmt.Sprintf("call failed (%s): %v", e.Class, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Classify maps an error to its class.
func Classify(err error) ErrorClass {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 401 || statusErr.StatusCode == 403:
			return ClassAuthError
		case statusErr.StatusCode == 404:
			return ClassNotFound
		case statusErr.StatusCode == 429:
			return ClassRateLimited
		case statusErr.StatusCode >= 500:
			return ClassServerError
		default:
			return ClassClientError
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetworkError
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassNetworkError
	}
	return ClassUnknown
}

// Retryable reports whether a class is worth retrying: rate limits, server
// errors, network failures and timeouts. Auth failures, not-found and
// malformed requests raise immediately.
func Retryable(class ErrorClass) bool {
	switch class {
	case ClassRateLimited, ClassServerError, ClassNetworkError, ClassTimeout:
		return true
	}
	return false
}

// Options configures a retried call.
type Options struct {
	MaxAttempts int
	// OnRetry is an observability hook invoked before each wait with the
	// upcoming attempt number, the jittered delay and the cause.
	OnRetry func(attempt int, delay time.Duration, cause error)
}

// Backoff returns the unjittered delay for a 0-indexed attempt:
// min(32s, 1s * 2^attempt).
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := baseDelay << uint(attempt)
	if d > maxDelay || d <= 0 {
		return maxDelay
	}
	return d
}

// withJitter spreads a delay by ±25%, uniformly distributed, so concurrent
// items do not retry in lockstep.
func withJitter(d time.Duration) time.Duration {
	jitter := time.Duration(float64(d) * jitterFraction * (2*rand.Float64() - 1))
	if d+jitter < 0 {
		return 0
	}
	return d + jitter
}

// after is swapped out in tests to avoid sleeping real backoff delays.
var after = time.After

// Call invokes fn until it succeeds, a non-retryable failure occurs, or
// attempts are exhausted. The returned error is always a *CallError on
// failure.
func Call[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		class := Classify(err)
		if !Retryable(class) {
			return zero, &CallError{Class: class, Attempts: attempt + 1, Err: err}
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		delay := withJitter(Backoff(attempt))
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-after(delay):
		case <-ctx.Done():
			return zero, &CallError{Class: ClassTimeout, Attempts: attempt + 1, Err: ctx.Err()}
		}
	}

	return zero, &CallError{Class: Classify(lastErr), Attempts: maxAttempts, Err: lastErr}
}
