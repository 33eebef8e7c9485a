// Package ratelimit throttles chat requests per client with a token bucket
// and an optional rolling daily quota.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket. Each request takes one token; tokens refill at
// rate per second up to capacity.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	rate       float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

func newBucket(capacity, rate float64, now func() time.Time) *bucket {
	return &bucket{
		tokens:     capacity,
		capacity:   capacity,
		rate:       rate,
		lastRefill: now(),
		now:        now,
	}
}

// refill must be called with mu held.
func (b *bucket) refill() {
	t := b.now()
	b.tokens = min(b.capacity, b.tokens+t.Sub(b.lastRefill).Seconds()*b.rate)
	b.lastRefill = t
}

// wait returns how long until a token is available; zero means one is.
func (b *bucket) wait() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		return 0
	}
	if b.rate <= 0 {
		return time.Hour
	}
	return time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
}

// take consumes one token if available.
func (b *bucket) take() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
	}
}

// full reports whether the bucket has refilled completely.
func (b *bucket) full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens >= b.capacity
}
