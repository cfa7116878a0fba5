package aiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFromHTTPStatus_Classification(t *testing.T) {
	cases := []struct {
		status    int
		msg       string
		target    any
		retryable bool
	}{
		{400, "bad field", new(*InvalidRequestError), false},
		{400, "maximum context length exceeded", new(*ContextLengthError), false},
		{401, "", new(*AuthenticationError), false},
		{403, "", new(*AccessDeniedError), false},
		{404, "", new(*NotFoundError), false},
		{408, "", new(*RequestTimeoutError), true},
		{429, "rate limited", new(*RateLimitError), true},
		{429, "insufficient quota", new(*QuotaExceededError), false},
		{503, "", new(*ServerError), true},
		{418, "", new(*UnknownHTTPError), false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", tc.status, tc.msg), func(t *testing.T) {
			err := ErrorFromHTTPStatus("openai", tc.status, tc.msg, nil)
			require.ErrorAs(t, err, tc.target)
			assert.Equal(t, tc.retryable, IsRetryable(err))
			assert.Contains(t, err.Error(), "openai error")
		})
	}
}

func TestWrapTransportError(t *testing.T) {
	assert.Nil(t, WrapTransportError("x", nil))
	assert.ErrorIs(t, WrapTransportError("x", context.Canceled), context.Canceled)

	var te *RequestTimeoutError
	require.ErrorAs(t, WrapTransportError("x", context.DeadlineExceeded), &te)
	assert.False(t, te.Retryable())

	var ne *NetworkError
	require.ErrorAs(t, WrapTransportError("x", errors.New("connection refused")), &ne)
	assert.True(t, ne.Retryable())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	d := ParseRetryAfter("3", now)
	require.NotNil(t, d)
	assert.Equal(t, 3*time.Second, *d)

	d = ParseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now)
	require.NotNil(t, d)
	assert.Equal(t, 10*time.Second, *d)

	assert.Nil(t, ParseRetryAfter("", now))
	assert.Nil(t, ParseRetryAfter("soon", now))
}

func TestBackoff_DelayForAttempt(t *testing.T) {
	b := BackoffConfig{InitialDelay: 100 * time.Millisecond, Factor: 2, MaxDelay: 350 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, b.DelayForAttempt(0))
	assert.Equal(t, 100*time.Millisecond, b.DelayForAttempt(1))
	assert.Equal(t, 200*time.Millisecond, b.DelayForAttempt(2))
	assert.Equal(t, 350*time.Millisecond, b.DelayForAttempt(3))
	assert.Equal(t, time.Duration(0), BackoffConfig{}.DelayForAttempt(4))
}
