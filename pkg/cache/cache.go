package cache

import (
	"context"
	"time"
)

// Service is the cache surface shared by the scoring API and the refresh
// worker. Values are pre-marshaled response payloads; the cache stores raw
// bytes and never serializes on behalf of the caller.
type Service interface {
	// Get returns the payload for key. A miss is (nil, false, nil), not an
	// error, so callers can fall through to recompute without branching on
	// error identity.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A non-positive ttl falls back to the
	// implementation default rather than storing forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPattern removes every key matching pattern. The scoring API
	// only ever passes trailing-star prefix patterns ("scorecard:GDPC1:*");
	// in-process implementations may support nothing more.
	DeleteByPattern(ctx context.Context, pattern string) error

	// TryLock acquires an expiring advisory lock. It returns false without
	// error when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases a lock taken with TryLock.
	Unlock(ctx context.Context, key string) error
}
