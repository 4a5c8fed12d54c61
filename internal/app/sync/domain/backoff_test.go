package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func noJitter(time.Duration) time.Duration { return 0 }

func TestBackoffPolicy_Delay(t *testing.T) {
	b := BackoffPolicy{
		Base:        30 * time.Second,
		Max:         30 * time.Minute,
		MaxAttempts: 5,
		Jitter:      noJitter,
	}

	assert.Equal(t, 30*time.Second, b.Delay(0))
	assert.Equal(t, 60*time.Second, b.Delay(1))
	assert.Equal(t, 120*time.Second, b.Delay(2))
	assert.Equal(t, 30*time.Minute, b.Delay(10), "capped at max")
}

func TestBackoffPolicy_Monotonic(t *testing.T) {
	// Even with full jitter the sequence must be non-decreasing until the
	// cap, because jitter is bounded by one base step.
	b := BackoffPolicy{
		Base:        30 * time.Second,
		Max:         30 * time.Minute,
		MaxAttempts: 5,
		Jitter:      func(bound time.Duration) time.Duration { return bound - 1 },
	}

	prev := time.Duration(0)
	for attempts := int64(0); attempts < 12; attempts++ {
		d := b.Delay(attempts)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempts)
		assert.LessOrEqual(t, d, b.Max)
		prev = d
	}
}

func TestBackoffPolicy_Exhausted(t *testing.T) {
	b := DefaultBackoff()

	assert.False(t, b.Exhausted(4))
	assert.True(t, b.Exhausted(5))
	assert.True(t, b.Exhausted(6))
}

func TestBackoffPolicy_NegativeAttempts(t *testing.T) {
	b := BackoffPolicy{Base: time.Second, Max: time.Minute, Jitter: noJitter}
	assert.Equal(t, time.Second, b.Delay(-1))
}
