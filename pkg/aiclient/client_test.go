package aiclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

type fakeAdapter struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, req ports.CompletionRequest) (string, error)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	f.calls.Add(1)
	return f.fn(ctx, req)
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userRequest(text string) ports.CompletionRequest {
	return ports.CompletionRequest{Messages: []domain.Message{domain.UserMessage(text)}}
}

func TestClient_FillsDefaults(t *testing.T) {
	var got ports.CompletionRequest
	a := &fakeAdapter{name: "fake", fn: func(_ context.Context, req ports.CompletionRequest) (string, error) {
		got = req
		return "ok", nil
	}}
	c := New(a, WithModel(" gpt-test "), WithTemperature(0.3))

	out, err := c.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "gpt-test", got.Model)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.3, *got.Temperature, 1e-9)
	assert.Equal(t, "fake", c.Provider())
}

func TestClient_RequestOverridesDefaults(t *testing.T) {
	var got ports.CompletionRequest
	a := &fakeAdapter{name: "fake", fn: func(_ context.Context, req ports.CompletionRequest) (string, error) {
		got = req
		return "ok", nil
	}}
	c := New(a, WithModel("default"), WithTemperature(0.3))
	temp := 0.9
	req := userRequest("hi")
	req.Model = "override"
	req.Temperature = &temp

	_, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "override", got.Model)
	assert.InDelta(t, 0.9, *got.Temperature, 1e-9)
}

func TestClient_RejectsEmptyRequest(t *testing.T) {
	c := New(&fakeAdapter{name: "fake"})
	_, err := c.Complete(context.Background(), ports.CompletionRequest{})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	var nilClient *Client
	_, err = nilClient.Complete(context.Background(), userRequest("x"))
	require.ErrorAs(t, err, &cfgErr)
}

func TestClient_MiddlewareOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next CompleteFunc) CompleteFunc {
			return func(ctx context.Context, req ports.CompletionRequest) (string, error) {
				trace = append(trace, name+">")
				out, err := next(ctx, req)
				trace = append(trace, "<"+name)
				return out, err
			}
		}
	}
	a := &fakeAdapter{name: "fake", fn: func(context.Context, ports.CompletionRequest) (string, error) {
		trace = append(trace, "call")
		return "ok", nil
	}}
	c := New(a, WithMiddleware(mark("a"), mark("b")))

	_, err := c.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a>", "b>", "call", "<b", "<a"}, trace)
}

func TestRetry_RetriesRetryableErrors(t *testing.T) {
	a := &fakeAdapter{name: "fake"}
	a.fn = func(context.Context, ports.CompletionRequest) (string, error) {
		if a.calls.Load() < 3 {
			return "", ErrorFromHTTPStatus("fake", 503, "overloaded", nil)
		}
		return "ok", nil
	}
	c := New(a, WithMiddleware(Retry(5, BackoffConfig{InitialDelay: time.Millisecond, Factor: 1}, nopLogger())))

	out, err := c.Complete(context.Background(), userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), a.calls.Load())
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	a := &fakeAdapter{name: "fake", fn: func(context.Context, ports.CompletionRequest) (string, error) {
		return "", ErrorFromHTTPStatus("fake", 401, "bad key", nil)
	}}
	c := New(a, WithMiddleware(Retry(5, BackoffConfig{InitialDelay: time.Millisecond}, nopLogger())))

	_, err := c.Complete(context.Background(), userRequest("hi"))
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	a := &fakeAdapter{name: "fake", fn: func(context.Context, ports.CompletionRequest) (string, error) {
		return "", ErrorFromHTTPStatus("fake", 429, "slow down", nil)
	}}
	c := New(a, WithMiddleware(Retry(2, BackoffConfig{InitialDelay: time.Millisecond}, nopLogger())))

	_, err := c.Complete(context.Background(), userRequest("hi"))
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, int32(3), a.calls.Load())
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeAdapter{name: "fake", fn: func(context.Context, ports.CompletionRequest) (string, error) {
		cancel()
		return "", ErrorFromHTTPStatus("fake", 500, "boom", nil)
	}}
	c := New(a, WithMiddleware(Retry(5, BackoffConfig{InitialDelay: time.Hour}, nopLogger())))

	_, err := c.Complete(ctx, userRequest("hi"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestTimeout_BoundsCall(t *testing.T) {
	a := &fakeAdapter{name: "fake", fn: func(ctx context.Context, _ ports.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", WrapTransportError("fake", ctx.Err())
	}}
	c := New(a, WithMiddleware(Timeout(10*time.Millisecond)))

	_, err := c.Complete(context.Background(), userRequest("hi"))
	var te *RequestTimeoutError
	require.ErrorAs(t, err, &te)
}

func TestLogging_PassesThrough(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := &fakeAdapter{name: "fake", fn: func(context.Context, ports.CompletionRequest) (string, error) {
		return "", errors.New("nope")
	}}
	c := New(a, WithMiddleware(Logging(logger, "fake")))

	ctx := domain.WithRunID(context.Background(), "run-1")
	_, err := c.Complete(ctx, userRequest("hi"))
	require.EqualError(t, err, "nope")
	assert.Contains(t, buf.String(), "completion failed")
	assert.Contains(t, buf.String(), "run_id=run-1")
}
