package scraper

import (
	"context"
	"math/rand"
	"time"
)

// RandomDelay samples pauses uniformly from [Min, Max] for inter-site waits
// and from [MicroMin, MicroMax] for per-card waits.
type RandomDelay struct {
	Min      time.Duration
	Max      time.Duration
	MicroMin time.Duration
	MicroMax time.Duration
}

// NewRandomDelay builds the production delay policy. Zero or inverted bounds
// collapse to the lower value.
func NewRandomDelay(min, max time.Duration) *RandomDelay {
	return &RandomDelay{
		Min:      min,
		Max:      max,
		MicroMin: 50 * time.Millisecond,
		MicroMax: 250 * time.Millisecond,
	}
}

// Wait pauses for a sampled inter-site delay or until ctx is done.
func (d *RandomDelay) Wait(ctx context.Context) {
	pause(ctx, sample(d.Min, d.Max))
}

// WaitMicro pauses for a sampled per-card delay or until ctx is done.
func (d *RandomDelay) WaitMicro(ctx context.Context) {
	pause(ctx, sample(d.MicroMin, d.MicroMax))
}

func sample(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ZeroDelay never pauses. Used by tests and dry runs.
type ZeroDelay struct{}

// Wait returns immediately.
func (ZeroDelay) Wait(context.Context) {}

// WaitMicro returns immediately.
func (ZeroDelay) WaitMicro(context.Context) {}
