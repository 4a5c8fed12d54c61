package domain

import (
	"math/rand"
	"time"
)

// BackoffPolicy computes retry delays for failed queue items:
// base * 2^attempts + jitter, capped at Max. Jitter is additive and bounded
// by Base, so the delay sequence is non-decreasing until the cap.
type BackoffPolicy struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int64

	// Jitter returns a random duration in [0, bound). Overridable for
	// deterministic tests; nil uses math/rand.
	Jitter func(bound time.Duration) time.Duration
}

// DefaultBackoff matches the engine defaults: 30s base, 30m cap, 5 attempts.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base:        30 * time.Second,
		Max:         30 * time.Minute,
		MaxAttempts: 5,
	}
}

// Delay returns the wait before the next attempt, given the number of
// attempts already made.
func (b BackoffPolicy) Delay(attempts int64) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	delay := b.Base
	for i := int64(0); i < attempts; i++ {
		delay *= 2
		if delay >= b.Max {
			return b.Max
		}
	}
	delay += b.jitter(b.Base)
	if delay > b.Max {
		return b.Max
	}
	return delay
}

// Exhausted reports whether attempts has reached the ceiling.
func (b BackoffPolicy) Exhausted(attempts int64) bool {
	return attempts >= b.MaxAttempts
}

func (b BackoffPolicy) jitter(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	if b.Jitter != nil {
		return b.Jitter(bound)
	}
	return time.Duration(rand.Int63n(int64(bound)))
}
