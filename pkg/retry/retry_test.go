package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5, Initial: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("still down")
	err := Do(context.Background(), Policy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}, func() error {
		calls++
		if calls == 3 {
			return last
		}
		return errors.New("down")
	})
	if !errors.Is(err, last) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoSingleAttemptByDefault(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func() error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 10, Initial: time.Hour}, func() error {
		calls++
		cancel()
		return errors.New("x")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWithJitterBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := withJitter(time.Second, 10*time.Millisecond)
		if d < time.Second || d >= time.Second+10*time.Millisecond {
			t.Fatalf("jittered duration out of range: %v", d)
		}
	}
}
