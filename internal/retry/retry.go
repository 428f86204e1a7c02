// Package retry re-invokes transient provider failures with exponential
// backoff. Both provider paths use it: embedding (internal/embedding) and
// completion (internal/rag). Permanent errors surface immediately with their
// original kind.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config configures retry behavior for provider calls.
type Config struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultConfig returns sensible defaults for Gemini API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns are substrings of Gemini API error text that indicate a
// transient failure. The SDK exposes no typed transient marker, so
// classification matches the error string case-insensitively: HTTP status
// codes 429 (RESOURCE_EXHAUSTED) and 500/503/504 as the API reports them,
// plus the network failures that show up below the HTTP layer.
var retryablePatterns = []string{
	"429", "resource_exhausted", "rate limit", "quota",
	"500", "503", "504", "unavailable", "internal error",
	"connection reset", "timeout", "temporary",
}

// Retryable reports whether err is transient and worth re-invoking.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Do runs fn with exponential backoff. Each attempt, including the first,
// waits on the rate limiter when one is configured. fn captures its own
// results; Do only sees the error.
func Do(ctx context.Context, logger *slog.Logger, cfg Config, limiter *rate.Limiter, fn func() error) error {
	var lastErr error
	delay := cfg.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		err := fn()
		if err == nil {
			logger.Debug("provider call succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return nil
		}

		lastErr = err

		if !Retryable(err) {
			return err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		logger.Debug("retrying provider call after error",
			"attempt", attempt+1,
			"delay", delay,
			"elapsed", time.Since(start),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, cfg.MaxInterval)
		}
	}

	return fmt.Errorf("after %d retries (elapsed: %v): %w",
		cfg.MaxRetries, time.Since(start), lastErr)
}
