package utils

import (
	"fmt"
	"time"
)

// RetryConfig holds the parameters for connecting to external stores. The
// cleaning pipeline itself never retries: its transforms are deterministic.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger

	sleep func(time.Duration)
}

// Do runs fn until it succeeds, doubling the delay after every failed attempt.
func (r *RetryConfig) Do(operationName string, fn func() error) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := r.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt < attempts {
			if r.Logger != nil {
				r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
					operationName, attempt, attempts, lastErr, delay)
			}
			sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}
