package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for provider API calls. An
// invocation is attempted up to 1+MaxRetries times; only transient
// failures are retried, with the backoff doubling each attempt.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

// NewDefaultRetryConfig returns a RetryConfig with the default budget.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// Backoff computes the wait before retrying a given zero-based attempt,
// doubling from InitialBackoff and capped at MaxBackoff.
func (c *RetryConfig) Backoff(attempt int) time.Duration {
	backoff := c.InitialBackoff << uint(attempt)
	if backoff > c.MaxBackoff || backoff <= 0 {
		backoff = c.MaxBackoff
	}
	return backoff
}

// HTTPStatusError is returned by hand-rolled provider clients so the
// retry classifier can branch on the status code directly.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

// IsRetryable reports whether an invocation error is transient:
// timeouts, rate limits and 5xx-class failures. Malformed requests,
// auth failures and permanent quota exhaustion are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == 429 || statusErr.Status >= 500
	}

	// SDK errors only expose status through their message.
	errStr := err.Error()
	if strings.Contains(errStr, "quota exceeded permanently") {
		return false
	}
	for _, marker := range []string{
		"429", "rate limit", "RESOURCE_EXHAUSTED", "overloaded",
		"500", "502", "503", "529", "timeout", "connection reset",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
