package debate

import (
	"context"
	"errors"
	"log"
	"math"
	"time"
)

// RetryConfig bounds the retry behavior for one call site.
// MaxRetries = 0 means exactly one attempt, no retries.
type RetryConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	BackoffFactor  float64
	MaxDelay       time.Duration
	RetryableKinds []ErrorKind
}

// DefaultRetryConfig is the policy applied to agent and capability calls
// unless the caller supplies its own.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     500 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      10 * time.Second,
	}
}

// Operation is a fallible call wrapped by WithRetry.
type Operation func(ctx context.Context) (interface{}, error)

// WithRetry invokes op with exponential backoff between failed attempts.
//
// Per failure: if its kind is in cfg.RetryableKinds, retry. Otherwise, if the
// failure is a classified *CallError, its own Retryable flag decides.
// Unclassified failures are propagated immediately. After the retry budget is
// exhausted the last failure is returned unchanged, so callers see the
// original error type rather than a wrapper.
func WithRetry(ctx context.Context, cfg RetryConfig, op Operation) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt-1)
			log.Printf(`{"level":"info","message":"Retrying after failure","attempt":%d,"delay_ms":%d,"error":"%v"}`,
				attempt, delay.Milliseconds(), lastErr)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !shouldRetry(cfg, err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// shouldRetry applies the classification rules of the policy to one failure.
func shouldRetry(cfg RetryConfig, err error) bool {
	var callErr *CallError
	if errors.As(err, &callErr) {
		for _, kind := range cfg.RetryableKinds {
			if callErr.Kind == kind {
				return true
			}
		}
		return callErr.Retryable
	}

	// Unclassified failure: never retried.
	return false
}

// backoffDelay computes min(MaxDelay, BaseDelay * BackoffFactor^attempt).
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.BackoffFactor, float64(attempt)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
