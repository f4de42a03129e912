package intent

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration. The resolver's
// timeout bounds the total time spent, so retries are few and short.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     1,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// shouldRetry determines if a status code is retryable.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// calculateBackoff returns initialBackoff * 2^attempt, capped at MaxBackoff.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// retryWithBackoff runs reqFunc until it returns a 2xx, a non-retryable
// status, or the attempts run out. Non-2xx responses are drained, closed and
// turned into a *StatusError.
func (e *LLMExtractor) retryWithBackoff(ctx context.Context, reqFunc func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := reqFunc()
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, Body: string(body)}
			if !shouldRetry(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt == e.retry.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, e.retry)
		e.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", e.retry.MaxRetries).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Extractor request failed, retrying")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("extractor request failed after %d attempts: %w", e.retry.MaxRetries+1, lastErr)
}
