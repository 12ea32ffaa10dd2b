package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError extends HTTPStatusError with the provider's Retry-After hint so
// client retry loops can honor it.
type StatusError struct {
	HTTPStatusError
	RetryAfter time.Duration
}

func (e *StatusError) Unwrap() error {
	return &e.HTTPStatusError
}

// NewStatusError builds a StatusError from a non-2xx provider response.
func NewStatusError(statusCode int, body, retryAfterHeader string) *StatusError {
	return &StatusError{
		HTTPStatusError: HTTPStatusError{StatusCode: statusCode, Body: strings.TrimSpace(body)},
		RetryAfter:      ParseRetryAfter(retryAfterHeader),
	}
}

// Classify tags a raw transport error with the sentinel the rest of the engine
// keys retry decisions on.
func Classify(stage, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsRateLimited(err):
		return Wrap(ErrRateLimited, stage, op, "provider throttled", err)
	case IsTimeout(err):
		return Wrap(ErrTimeout, stage, op, "provider timeout", err)
	case IsTransient(err):
		return Wrap(ErrTimeout, stage, op, "provider unavailable", err)
	default:
		return Wrap(ErrFatal, stage, op, "provider request failed", err)
	}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RetryDelay decides whether a failed provider call should be retried in-client
// and with what delay. Retry-After hints win over computed backoff.
func RetryDelay(ctx context.Context, err error, attempt, maxAttempts int, baseDelay, maxDelay time.Duration) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return CapDelay(statusErr.RetryAfter, maxDelay), true
			}
			return BackoffDelay(attempt, baseDelay, maxDelay), true
		default:
			return 0, false
		}
	}
	if IsTimeout(err) {
		return BackoffDelay(attempt, baseDelay, maxDelay), true
	}
	return 0, false
}

// BackoffDelay doubles the base delay per completed attempt, capped at maxDelay.
func BackoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return CapDelay(delay, maxDelay)
}

// CapDelay clamps delay to [0, maxDelay].
func CapDelay(delay, maxDelay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

// ParseRetryAfter parses a Retry-After header in either seconds or HTTP-date
// form, returning zero when absent or malformed.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay
		}
	}
	return 0
}

// SleepWithContext waits for delay or context cancellation, whichever comes
// first. A non-nil sleeper replaces the wait, which keeps tests instant.
func SleepWithContext(ctx context.Context, delay time.Duration, sleeper func(time.Duration)) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sleeper != nil {
		sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
