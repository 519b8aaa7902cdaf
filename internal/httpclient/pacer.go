package httpclient

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMinDelay is the lower bound of the randomized request delay.
	DefaultMinDelay = 2 * time.Second
	// DefaultMaxDelay is the upper bound of the randomized request delay.
	DefaultMaxDelay = 5 * time.Second
)

// Pacer spaces out requests to a remote site with a uniformly distributed delay.
// It is safe for concurrent use; each caller waits independently.
type Pacer struct {
	min    time.Duration
	max    time.Duration
	int64N func(int64) int64
	sleep  func(context.Context, time.Duration) error
}

// PacerOption customizes a Pacer.
type PacerOption func(*Pacer)

// WithSleep replaces the sleep function, mainly for tests.
func WithSleep(fn func(context.Context, time.Duration) error) PacerOption {
	return func(p *Pacer) { p.sleep = fn }
}

// WithRandom replaces the random source. fn must return a value in [0, n).
func WithRandom(fn func(int64) int64) PacerOption {
	return func(p *Pacer) { p.int64N = fn }
}

// NewPacer creates a Pacer drawing delays from [minDelay, maxDelay].
// A maxDelay below minDelay is raised to minDelay.
func NewPacer(minDelay, maxDelay time.Duration, opts ...PacerOption) *Pacer {
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	p := &Pacer{
		min:    minDelay,
		max:    maxDelay,
		int64N: rand.Int64N,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NoDelay returns a Pacer that never waits.
func NoDelay() *Pacer {
	return NewPacer(0, 0)
}

// Delay draws the next delay.
func (p *Pacer) Delay() time.Duration {
	span := p.max - p.min
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.int64N(int64(span)+1))
}

// Wait sleeps for a random delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
