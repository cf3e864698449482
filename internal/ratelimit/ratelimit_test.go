package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerEnforcesMinimumGap(t *testing.T) {
	p := NewPacer(50*time.Millisecond, 50*time.Millisecond)

	require.NoError(t, p.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacerContextCancelled(t *testing.T) {
	p := NewPacer(time.Minute, time.Minute)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
}

func TestBackoffPacerWidensAfterFailures(t *testing.T) {
	b := NewBackoffPacer(10*time.Second, 20*time.Second)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}

	assert.Equal(t, 15*time.Second, b.minDelay)
	assert.Equal(t, 30*time.Second, b.maxDelay)
}

func TestBackoffPacerNarrowsAfterSuccesses(t *testing.T) {
	b := NewBackoffPacer(10*time.Second, 20*time.Second)

	for i := 0; i < 6; i++ {
		b.RecordSuccess()
	}

	assert.Equal(t, 9*time.Second, b.minDelay)
}

func TestBackoffPacerDelayCapped(t *testing.T) {
	b := NewBackoffPacer(50*time.Second, 110*time.Second)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}

	assert.Equal(t, 60*time.Second, b.minDelay)
	assert.Equal(t, 120*time.Second, b.maxDelay)
}
