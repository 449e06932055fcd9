package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestGateEnforcesMinimumInterval(t *testing.T) {
	g := NewGate(50 * time.Millisecond)
	ctx := context.Background()

	if err := g.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 40*time.Millisecond {
		t.Fatalf("expected Wait to block roughly 50ms, only waited %v", elapsed)
	}
}

func TestGateZeroIntervalNeverBlocks(t *testing.T) {
	g := NewGate(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := g.Wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 20*time.Millisecond {
		t.Fatalf("a zero interval gate should never block meaningfully")
	}
}

func TestGateCanceledContextDoesNotPenalizeNextCaller(t *testing.T) {
	g := NewGate(time.Hour)
	ctx := context.Background()

	if err := g.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Wait(canceled); err == nil {
		t.Fatal("expected a canceled context to return an error")
	}

	// The canceled caller never completed Wait, so lastCallAt is unchanged from
	// the first successful call — a subsequent caller still has to wait out the
	// original interval, not be released early.
	g.minInterval = 10 * time.Millisecond
	start := time.Now()
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatalf("expected the gate to still enforce the interval after a canceled waiter")
	}
}
