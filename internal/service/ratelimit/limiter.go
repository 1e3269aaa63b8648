package ratelimit

import (
	"sync"
	"time"
)

// pruneAfter is how long a bucket may sit idle before the next Allow call
// sweeps it out. Keeps the map from accumulating one-off client keys.
const pruneAfter = 10 * time.Minute

type tokenBucket struct {
	remaining float64
	limit     float64
	perSec    float64
	seenAt    time.Time
}

// take refills the bucket from elapsed wall time and consumes one token
// if available.
func (b *tokenBucket) take(now time.Time) bool {
	if gap := now.Sub(b.seenAt).Seconds(); gap > 0 {
		b.remaining += gap * b.perSec
		if b.remaining > b.limit {
			b.remaining = b.limit
		}
		b.seenAt = now
	}
	if b.remaining < 1 {
		return false
	}
	b.remaining--
	return true
}

// Limiter is a keyed token-bucket limiter. Buckets are created on first
// use with the capacity and refill rate passed by the caller, so different
// endpoints can run different budgets through one limiter.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*tokenBucket), lastSweep: time.Now()}
}

// Allow reports whether one request may proceed for key. capacity is the
// burst size, refillPerSec the sustained rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > pruneAfter {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &tokenBucket{remaining: capacity - 1, limit: capacity, perSec: refillPerSec, seenAt: now}
		return true
	}
	return b.take(now)
}

// sweep drops buckets idle long enough to be fully refilled anyway.
// Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seenAt) > pruneAfter {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
