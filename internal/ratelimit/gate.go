// Package ratelimit enforces a minimum inter-call interval per provider tier,
// the simplest gate that satisfies component A: callers for one provider are
// admitted one at a time, each admission spaced by at least MinInterval. The
// gate does not limit how many admitted calls are in flight at once.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate serializes callers waiting on a single provider and enforces a minimum gap
// between the start of one call and the start of the next.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastCallAt  time.Time
}

func NewGate(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval}
}

// Wait blocks until the gate's interval has elapsed since the last call, then
// records the current time as the new last-call time and returns. If ctx is
// canceled while waiting, the gate is released without being considered used,
// so a canceled caller never penalizes the next one.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.minInterval <= 0 {
		g.lastCallAt = time.Now()
		return nil
	}

	wait := time.Until(g.lastCallAt.Add(g.minInterval))
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	g.lastCallAt = time.Now()
	return nil
}
