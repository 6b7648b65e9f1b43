package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, 1*time.Second, cfg.Backoff(0))
	assert.Equal(t, 2*time.Second, cfg.Backoff(1))
	assert.Equal(t, 4*time.Second, cfg.Backoff(2))
	assert.Equal(t, 8*time.Second, cfg.Backoff(3))

	// Capped at MaxBackoff, including on shift overflow.
	assert.Equal(t, 30*time.Second, cfg.Backoff(10))
	assert.Equal(t, 30*time.Second, cfg.Backoff(63))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"http 429", &HTTPStatusError{Status: 429}, true},
		{"http 503", &HTTPStatusError{Status: 503}, true},
		{"http 500", &HTTPStatusError{Status: 500}, true},
		{"http 400", &HTTPStatusError{Status: 400}, false},
		{"http 401", &HTTPStatusError{Status: 401}, false},
		{"http 404", &HTTPStatusError{Status: 404}, false},
		{"rate limit message", errors.New("provider said rate limit exceeded"), true},
		{"resource exhausted message", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"overloaded message", errors.New("API overloaded, try later"), true},
		{"permanent quota", errors.New("quota exceeded permanently"), false},
		{"malformed request", errors.New("invalid request payload"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
