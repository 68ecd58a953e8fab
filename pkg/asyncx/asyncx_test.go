package asyncx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/asyncx"
)

// --- RetryWithBackoff tests ---

func TestRetryWithBackoff_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	val, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("provider blip")
		}
		return "delivered", nil
	})
	if err != nil {
		t.Fatalf("expected success on the third attempt, got %v", err)
	}
	if val != "delivered" {
		t.Fatalf("expected delivered, got %q", val)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_ReturnsLastErrorWhenExhausted(t *testing.T) {
	wantErr := errors.New("still down")
	attempts := 0
	_, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) (struct{}, error) {
		attempts++
		return struct{}{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the last error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := asyncx.RetryWithBackoff(ctx, 3, time.Millisecond, func(ctx context.Context) (struct{}, error) {
		attempts++
		return struct{}{}, errors.New("never reached")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected no attempts on a dead context, got %d", attempts)
	}
}

// --- WithTimeout tests ---

func TestWithTimeout_ReturnsResultInTime(t *testing.T) {
	val, err := asyncx.WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("WithTimeout failed: %v", err)
	}
	if val != 42 {
		t.Fatalf("expected 42, got %d", val)
	}
}

func TestWithTimeout_DeadlineExceeded(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-time.After(time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
