package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func testPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), testPolicy(3), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return &RetryableError{Err: errors.New("rate limited")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	cause := errors.New("persistent")
	err := Retry(context.Background(), testPolicy(2), func(context.Context) error {
		attempts++
		return &RetryableError{Err: cause}
	})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts (initial + 2 retries), got %d", attempts)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), testPolicy(3), func(context.Context) error {
		attempts++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	policy := testPolicy(5)
	policy.InitialBackoff = time.Second
	policy.MaxBackoff = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Retry(ctx, policy, func(context.Context) error {
		return &RetryableError{Err: errors.New("rate limited")}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	policy := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{5, time.Second},
	}
	for _, tt := range tests {
		if got := calculateBackoff(policy, tt.attempt); got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}

	policy.Jitter = true
	for i := 0; i < 20; i++ {
		got := calculateBackoff(policy, 1)
		if got < 180*time.Millisecond || got > 220*time.Millisecond {
			t.Fatalf("jittered backoff %v outside ±10%%", got)
		}
	}
}

func TestRetry_CustomClassifierAndHook(t *testing.T) {
	transient := errors.New("transient")
	policy := testPolicy(3)
	policy.Classify = func(err error) (bool, time.Duration) {
		return errors.Is(err, transient), time.Millisecond
	}
	var waits []time.Duration
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		if attempt != len(waits)+1 {
			t.Errorf("expected attempt %d, got %d", len(waits)+1, attempt)
		}
		waits = append(waits, wait)
	}

	attempts := 0
	err := Retry(context.Background(), policy, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(waits) != 2 || waits[0] != time.Millisecond {
		t.Errorf("expected two classifier-supplied waits, got %v", waits)
	}
}

func TestRetry_AttemptTimeout(t *testing.T) {
	policy := testPolicy(1)
	policy.AttemptTimeout = 10 * time.Millisecond
	policy.Classify = classifyOpenAIError

	attempts := 0
	err := Retry(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected a timed-out attempt to be retried once, got %d attempts", attempts)
	}
}

func TestClassifyOpenAIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"request error", &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable, Err: errors.New("unavailable")}, true},
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"attempt deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), true},
		{"explicit retryable", &RetryableError{Err: errors.New("x"), RetryAfter: time.Second}, true},
		{"plain", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := classifyOpenAIError(tt.err); got != tt.retry {
				t.Errorf("classifyOpenAIError(%v) = %v, want %v", tt.err, got, tt.retry)
			}
		})
	}
}
