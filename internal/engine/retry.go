package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior for a specific operation type.
type RetryPolicy struct {
	MaxRetries   int           // 0 = no retries
	InitialDelay time.Duration // delay before first retry
	MaxDelay     time.Duration // delay cap
	Multiplier   float64       // exponential backoff multiplier
	Jitter       bool          // add 0-20% random jitter
}

// RetryConfig holds separate retry policies for LLM and tool calls.
type RetryConfig struct {
	LLMPolicy  RetryPolicy
	ToolPolicy RetryPolicy
}

// DefaultRetryConfig returns sensible default retry policies.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		LLMPolicy: RetryPolicy{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
		ToolPolicy: RetryPolicy{
			MaxRetries:   2,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy executes fn with retry logic based on the policy. Returns
// the result on success, or the last error wrapped in RetryExhaustedError when
// attempts run out.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classify func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T
	attempt := 0

	for {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		if classify(err) == RetryClassNonRetryable {
			return zero, err
		}
		if attempt >= policy.MaxRetries {
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt, MaxAttempts: policy.MaxRetries}
		}

		delay := backoffDelay(policy, attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}

		attempt++
	}
}

// backoffDelay computes the exponential backoff delay for an attempt.
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}
