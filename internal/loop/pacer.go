package loop

import (
	"context"
	"time"
)

// Pacer enforces a minimum wall-clock interval between ticks. The interval is
// measured from the start of the previous tick, so compute time counts
// toward it.
type Pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, now: time.Now}
}

// Mark records the start of a tick.
func (p *Pacer) Mark() {
	p.last = p.now()
}

// Wait blocks until the interval since the last Mark has elapsed or ctx is
// done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}
	remaining := p.interval - p.now().Sub(p.last)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
