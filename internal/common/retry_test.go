package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry(t *testing.T) {
	fastOpts := RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return nil
		}, fastOpts)
		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if calls != 1 {
			t.Errorf("Operation ran %d times, want 1", calls)
		}
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, fastOpts)
		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("Operation ran %d times, want 3", calls)
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return errors.New("persistent")
		}, fastOpts)
		if !errors.Is(err, ErrMaxRetries) {
			t.Errorf("WithRetry() error = %v, want ErrMaxRetries", err)
		}
		if calls != fastOpts.MaxAttempts {
			t.Errorf("Operation ran %d times, want %d", calls, fastOpts.MaxAttempts)
		}
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := WithRetry(ctx, func() error {
			return errors.New("transient")
		}, fastOpts)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WithRetry() error = %v, want context.Canceled", err)
		}
	})
}

func TestInvalidf(t *testing.T) {
	err := Invalidf("radius %g out of range", 60.0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Invalidf() did not wrap ErrInvalidInput: %v", err)
	}
	want := "invalid input: radius 60 out of range"
	if err.Error() != want {
		t.Errorf("Invalidf() message = %q, want %q", err.Error(), want)
	}
}
