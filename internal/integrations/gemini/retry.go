// Package gemini provides Gemini integration for structured card synthesis.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryConfig holds configuration for exponential backoff retry.
type RetryConfig struct {
	MaxRetries  int           // maximum retry attempts (default: 4)
	BaseDelay   time.Duration // delay before first retry (default: 1s)
	MaxDelay    time.Duration // delay cap (default: 30s)
	JitterRatio float64       // jitter as fraction of delay, 0.0-1.0 (default: 0.25)
}

// DefaultRetryConfig returns sensible defaults for Gemini API retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  4,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		JitterRatio: 0.25,
	}
}

// isRetryable reports whether err is a transient API error worth retrying.
// Checks are typed, not string-matched: REST errors via *googleapi.Error
// (429 / 5xx), gRPC errors via status codes. Other client errors return
// immediately so the generate stage can engage its heuristic fallback
// without pointless delay.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || (gerr.Code >= 500 && gerr.Code < 600)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.Internal:
			return true
		}
	}

	return false
}

// withRetry executes fn with exponential backoff on transient errors.
func withRetry[T any](ctx context.Context, cfg RetryConfig, operation string, fn func() (T, error)) (T, error) {
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if !isRetryable(err) {
			return zero, err
		}

		if attempt == cfg.MaxRetries {
			return zero, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, err)
		}

		delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt)))
		if cfg.JitterRatio > 0 {
			delay += time.Duration(rand.Float64() * cfg.JitterRatio * float64(delay))
		}
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: context cancelled during retry: %w", operation, ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%s: retry loop exited unexpectedly", operation)
}
