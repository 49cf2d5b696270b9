package modelapi

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *APIError
		retryable bool
		rateLimit bool
		authError bool
	}{
		{"server error", &APIError{StatusCode: 500}, true, false, false},
		{"bad gateway", &APIError{StatusCode: 502}, true, false, false},
		{"rate limited", &APIError{StatusCode: 429}, true, true, false},
		{"unauthorized", &APIError{StatusCode: 401}, false, false, true},
		{"invalid api key code", &APIError{StatusCode: 400, Code: "invalid_api_key"}, false, false, true},
		{"bad request", &APIError{StatusCode: 400}, false, false, false},
		{"timeout code", &APIError{StatusCode: 400, Code: "timeout"}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, tt.rateLimit, tt.err.IsRateLimit())
			assert.Equal(t, tt.authError, tt.err.IsAuthError())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 503})))
	assert.False(t, IsRetryable(&APIError{StatusCode: 404}))
}

func TestGetRetryDelay(t *testing.T) {
	err := &APIError{StatusCode: 500}

	assert.Equal(t, time.Second, GetRetryDelay(err, 1))
	assert.Equal(t, 2*time.Second, GetRetryDelay(err, 2))
	assert.Equal(t, 4*time.Second, GetRetryDelay(err, 3))

	// Exponential growth caps at one minute.
	assert.Equal(t, time.Minute, GetRetryDelay(err, 20))
}

func TestGetRetryDelayHonorsRetryAfter(t *testing.T) {
	err := &APIError{
		StatusCode: 429,
		Details:    map[string]interface{}{"retry_after": float64(9)},
	}
	assert.Equal(t, 9*time.Second, GetRetryDelay(err, 1))
}

func TestAPIErrorMessage(t *testing.T) {
	withCode := &APIError{StatusCode: 429, Code: "rate_limit_exceeded", Message: "slow down"}
	assert.Equal(t, "API error 429 (rate_limit_exceeded): slow down", withCode.Error())

	plain := &APIError{StatusCode: 500, Message: "boom"}
	assert.Equal(t, "API error 500: boom", plain.Error())
}
