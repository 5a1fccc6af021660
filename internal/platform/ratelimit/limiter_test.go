package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistry_RejectsInvalidPolicy(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("thesportsdb", Policy{MaxRequests: 0, Window: time.Second}); err == nil {
		t.Fatalf("expected error for zero max requests")
	}
	if err := r.Register("thesportsdb", Policy{MaxRequests: 1}); err == nil {
		t.Fatalf("expected error for zero window")
	}
	if err := r.Register(" ", Policy{MaxRequests: 1, Window: time.Second}); err == nil {
		t.Fatalf("expected error for empty source")
	}
}

func TestRegistry_UnknownSource(t *testing.T) {
	r := NewRegistry()
	err := r.Acquire(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestPolicy_Interval(t *testing.T) {
	p := Policy{MaxRequests: 10, Window: 60 * time.Second}
	if got := p.Interval(); got != 6*time.Second {
		t.Fatalf("expected 6s interval, got %s", got)
	}
}

func TestRegistry_SpacesConcurrentCallers(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register("fast", Policy{MaxRequests: 1, Window: 100 * time.Millisecond}); err != nil {
		t.Fatalf("register: %v", err)
	}

	start := time.Now()
	acquireConcurrently(t, r, "fast", 5)
	if elapsed := time.Since(start); elapsed < 390*time.Millisecond {
		t.Fatalf("5 acquires at 1/100ms finished too fast: %s", elapsed)
	}
}

func TestRegistry_OneEveryTwoSecondsProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("wall-clock limiter property takes ~8s")
	}
	t.Parallel()

	r := NewRegistry()
	if err := r.Register("thesportsdb", Policy{MaxRequests: 1, Window: 2 * time.Second}); err != nil {
		t.Fatalf("register: %v", err)
	}

	start := time.Now()
	acquireConcurrently(t, r, "thesportsdb", 5)
	if elapsed := time.Since(start); elapsed < 8*time.Second-50*time.Millisecond {
		t.Fatalf("expected >= 8s for 5 acquires, got %s", elapsed)
	}
}

func TestRegistry_AcquireHonoursCancellation(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register("slow", Policy{MaxRequests: 1, Window: time.Hour}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Acquire(context.Background(), "slow"); err != nil {
		t.Fatalf("first acquire should be immediate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Acquire(ctx, "slow") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire did not return after cancellation")
	}
}

func TestRegistry_CloseReleasesWaiters(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register("slow", Policy{MaxRequests: 1, Window: time.Hour}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Acquire(context.Background(), "slow"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- r.Acquire(context.Background(), "slow") }()

	time.Sleep(20 * time.Millisecond)
	r.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire did not return after Close")
	}

	if err := r.Acquire(context.Background(), "slow"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}

func acquireConcurrently(t *testing.T, r *Registry, source string, n int) {
	t.Helper()

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Acquire(context.Background(), source)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
	}
}
