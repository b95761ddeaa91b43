package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Classifier decides whether a failed attempt is worth repeating. A positive
// wait overrides the computed backoff.
type Classifier func(err error) (retry bool, wait time.Duration)

// RetryPolicy defines how retries should be handled.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool

	// AttemptTimeout bounds each attempt separately from the caller's context.
	AttemptTimeout time.Duration
	// Classify defaults to retrying only *RetryableError.
	Classify Classifier
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryPolicy returns the backoff shape used for language-model calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     20 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

// OpenAIRetryPolicy is DefaultRetryPolicy with chat-completion error
// classification and a per-attempt deadline.
func OpenAIRetryPolicy(attemptTimeout time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	p.AttemptTimeout = attemptTimeout
	p.Classify = classifyOpenAIError
	return p
}

// RetryableError wraps an error to indicate it should be retried.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v (retry after %v)", e.Err, e.RetryAfter)
	}
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func classifyRetryableError(err error) (bool, time.Duration) {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true, retryable.RetryAfter
	}
	return false, 0
}

// classifyOpenAIError retries rate limits, server errors and attempts that
// hit their own deadline.
func classifyOpenAIError(err error) (bool, time.Duration) {
	if retry, wait := classifyRetryableError(err); retry {
		return true, wait
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, 0
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError, 0
}

// Retry runs fn until it succeeds, the policy rejects the error, or retries
// run out. Cancelling ctx stops both the attempt and the wait.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	classify := policy.Classify
	if classify == nil {
		classify = classifyRetryableError
	}

	for attempt := 0; ; attempt++ {
		err := policy.run(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}

		retry, wait := classify(err)
		if !retry {
			return err
		}
		if attempt >= policy.MaxRetries {
			return fmt.Errorf("max retries exceeded (%d): %w", policy.MaxRetries, err)
		}

		if wait <= 0 {
			wait = calculateBackoff(policy, attempt)
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func (p RetryPolicy) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

// calculateBackoff computes initialBackoff * factor^attempt, capped, with ±10% jitter.
func calculateBackoff(policy RetryPolicy, attempt int) time.Duration {
	backoff := float64(policy.InitialBackoff) * math.Pow(policy.BackoffFactor, float64(attempt))
	if policy.MaxBackoff > 0 && backoff > float64(policy.MaxBackoff) {
		backoff = float64(policy.MaxBackoff)
	}

	duration := time.Duration(backoff)
	if policy.Jitter {
		duration += time.Duration(float64(duration) * 0.1 * (2*rand.Float64() - 1))
	}
	return duration
}
