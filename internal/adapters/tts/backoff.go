package tts

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	if max <= 0 {
		max = defaultMaxBackoff
	}
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Sleep waits for the current backoff duration with ±20% jitter and then
// doubles it up to max. It returns false if ctx ends first.
func (b *backoff) Sleep(ctx context.Context) bool {
	d := b.current
	if d > 0 {
		jitter := time.Duration(rand.Int64N(int64(d)/5*2+1)) - d/5
		d += jitter
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return true
}

// Reset returns the backoff to its initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the backoff duration before jitter.
func (b *backoff) Current() time.Duration {
	return b.current
}
