package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config configures retry behavior with exponential backoff.
type Config struct {
	MaxRetries int                   `json:"max_retries"` // Maximum number of retry attempts
	BaseDelay  time.Duration         `json:"base_delay"`  // Delay before the first retry
	MaxDelay   time.Duration         `json:"max_delay"`   // Cap applied to every delay
	Multiplier float64               `json:"multiplier"`  // Exponential backoff multiplier
	Jitter     bool                  `json:"jitter"`      // Add random jitter to prevent thundering herd
	Retryable  func(error) bool      `json:"-"`           // Predicate: is this error worth retrying
	Sleep      func(context.Context, time.Duration) error `json:"-"` // Overridable in tests
}

// Result contains information about the retry operation.
type Result struct {
	Attempts      int           `json:"attempts"`       // Total number of attempts made
	TotalDuration time.Duration `json:"total_duration"` // Total time spent on all attempts
	LastError     error         `json:"-"`              // Last error encountered
	Success       bool          `json:"success"`        // Whether the operation eventually succeeded
	Delays        []time.Duration `json:"-"`            // Delay applied before each retry
}

// LLMConfig returns the retry policy for generative-API calls: only
// rate-limit signals are retried, with a 5s -> 10s -> 20s schedule.
// The base, multiplier, and attempt count are a rate-limit-survival
// contract with the upstream API; do not tune them casually.
func LLMConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  5 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.0,
		Jitter:     false,
		Retryable:  IsRateLimitError,
	}
}

// Do executes an operation with exponential backoff retry logic. A nil
// Retryable predicate retries every error. Non-retryable errors fail
// immediately without further attempts.
func Do(ctx context.Context, config Config, operation func() error) Result {
	startTime := time.Now()

	sleep := config.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	result := Result{}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		err := operation()
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)
			return result
		}

		result.LastError = err

		if attempt >= config.MaxRetries {
			break
		}

		if config.Retryable != nil && !config.Retryable(err) {
			break
		}

		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			break
		}

		delay := calculateDelay(config, attempt)
		result.Delays = append(result.Delays, delay)

		if err := sleep(ctx, delay); err != nil {
			result.LastError = err
			break
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// calculateDelay calculates the delay for the next retry attempt using
// exponential backoff: baseDelay * multiplier^attempt, capped at MaxDelay.
func calculateDelay(config Config, attempt int) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		// Up to 10% random jitter
		jitterRange := delay * 0.1
		jitter := (rand.Float64() - 0.5) * 2 * jitterRange
		delay += jitter

		if delay < 0 {
			delay = float64(config.BaseDelay)
		}
	}

	return time.Duration(delay)
}

// IsRateLimitError reports whether an error looks like an upstream
// rate-limit or quota signal. Anything else is not retried.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	rateLimitSignals := []string{
		"429",
		"rate limit",
		"too many requests",
		"quota",
		"resource has been exhausted",
	}

	for _, signal := range rateLimitSignals {
		if strings.Contains(msg, signal) {
			return true
		}
	}

	return false
}
