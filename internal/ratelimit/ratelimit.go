// Package ratelimit paces product-page fetches. Delays are randomized
// between a floor and a ceiling so request timing does not form a
// detectable pattern, and widen after repeated failures.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

// Pacer enforces a randomized minimum gap between actions.
type Pacer struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
}

func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	return &Pacer{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.lastAction)
	delay := p.nextDelay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	p.lastAction = time.Now()
	return nil
}

func (p *Pacer) SetDelay(min, max time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.minDelay = min
	p.maxDelay = max
}

func (p *Pacer) nextDelay() time.Duration {
	if p.maxDelay <= p.minDelay {
		return p.minDelay
	}
	jitter := time.Duration(rand.Int63n(int64(p.maxDelay - p.minDelay)))
	return p.minDelay + jitter
}

// BackoffPacer widens the delay window after consecutive failures and
// slowly narrows it again while runs keep succeeding.
type BackoffPacer struct {
	*Pacer
	failures      int
	successes     int
	failThreshold int
	backoffFactor float64
}

func NewBackoffPacer(minDelay, maxDelay time.Duration) *BackoffPacer {
	return &BackoffPacer{
		Pacer:         NewPacer(minDelay, maxDelay),
		failThreshold: 3,
		backoffFactor: 1.5,
	}
}

func (b *BackoffPacer) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
	b.failures = 0

	if b.successes > 5 {
		newMin := time.Duration(float64(b.minDelay) * 0.9)
		if newMin < time.Second {
			newMin = time.Second
		}
		b.minDelay = newMin
		b.successes = 0
	}
}

func (b *BackoffPacer) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0

	if b.failures >= b.failThreshold {
		newMin := time.Duration(float64(b.minDelay) * b.backoffFactor)
		newMax := time.Duration(float64(b.maxDelay) * b.backoffFactor)

		if newMin > 60*time.Second {
			newMin = 60 * time.Second
		}
		if newMax > 120*time.Second {
			newMax = 120 * time.Second
		}

		b.minDelay = newMin
		b.maxDelay = newMax
		b.failures = 0
	}
}
