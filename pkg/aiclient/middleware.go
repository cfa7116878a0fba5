package aiclient

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// Logging logs every call with its duration and outcome.
func Logging(logger *slog.Logger, provider string) Middleware {
	return func(next CompleteFunc) CompleteFunc {
		return func(ctx context.Context, req ports.CompletionRequest) (string, error) {
			start := time.Now()
			out, err := next(ctx, req)
			attrs := []any{
				"provider", provider,
				"model", req.Model,
				"run_id", domain.RunIDFromContext(ctx),
				"messages", len(req.Messages),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.Warn("completion failed", append(attrs, "error", err)...)
				return out, err
			}
			logger.Debug("completion ok", append(attrs, "response_len", len(out))...)
			return out, nil
		}
	}
}

// Timeout bounds each call (each retry attempt, when placed after Retry).
func Timeout(d time.Duration) Middleware {
	return func(next CompleteFunc) CompleteFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, req ports.CompletionRequest) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}

// BackoffConfig configures retry delays.
type BackoffConfig struct {
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
}

// DefaultBackoff is 500ms doubling up to 30s.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{InitialDelay: 500 * time.Millisecond, Factor: 2.0, MaxDelay: 30 * time.Second}
}

// DelayForAttempt returns the wait before retry number attempt (1-indexed).
func (b BackoffConfig) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if b.InitialDelay <= 0 {
		return 0
	}
	factor := b.Factor
	if factor <= 0 {
		factor = 1
	}
	d := float64(b.InitialDelay) * math.Pow(factor, float64(attempt-1))
	if b.MaxDelay > 0 {
		d = math.Min(d, float64(b.MaxDelay))
	}
	return time.Duration(d)
}

// Retry re-issues calls that fail with a retryable Error, up to maxRetries extra attempts.
// A provider supplied Retry-After overrides the computed delay.
func Retry(maxRetries int, backoff BackoffConfig, logger *slog.Logger) Middleware {
	return func(next CompleteFunc) CompleteFunc {
		if maxRetries <= 0 {
			return next
		}
		return func(ctx context.Context, req ports.CompletionRequest) (string, error) {
			for attempt := 0; ; attempt++ {
				out, err := next(ctx, req)
				if err == nil || attempt >= maxRetries || !IsRetryable(err) {
					return out, err
				}

				delay := backoff.DelayForAttempt(attempt + 1)
				var e Error
				if errors.As(err, &e) && e.RetryAfter() != nil {
					delay = *e.RetryAfter()
				}
				logger.Info("retrying completion", "attempt", attempt+1, "delay", delay, "error", err)

				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return "", ctx.Err()
				case <-timer.C:
				}
			}
		}
	}
}
