package cache

import (
	"context"
	"time"
)

// Layered reads through a small in-process cache before the shared redis
// one. Redis hits are backfilled into memory with a short TTL so repeated
// reads on one instance stay local; locks always go to redis so they hold
// across instances.
type Layered struct {
	mem    *Memory
	shared *Redis
	memTTL time.Duration
}

// NewLayered builds the two-level cache in front of an existing redis cache.
func NewLayered(shared *Redis, opts ...LayeredOption) *Layered {
	cfg := &LayeredConfig{
		MemTTL:     30 * time.Second,
		MemEntries: 1000,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Layered{
		mem:    NewMemory(WithMemoryMaxEntries(cfg.MemEntries)),
		shared: shared,
		memTTL: cfg.MemTTL,
	}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := l.mem.Get(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := l.shared.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = l.mem.Set(ctx, key, b, l.memTTL)
	return b, true, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	memTTL := ttl
	if memTTL <= 0 || memTTL > l.memTTL {
		memTTL = l.memTTL
	}
	_ = l.mem.Set(ctx, key, value, memTTL)
	return l.shared.Set(ctx, key, value, ttl)
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = l.mem.Delete(ctx, keys...)
	return l.shared.Delete(ctx, keys...)
}

func (l *Layered) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = l.mem.DeleteByPattern(ctx, pattern)
	return l.shared.DeleteByPattern(ctx, pattern)
}

func (l *Layered) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.shared.TryLock(ctx, key, ttl)
}

func (l *Layered) Unlock(ctx context.Context, key string) error {
	return l.shared.Unlock(ctx, key)
}

// Close shuts down both layers.
func (l *Layered) Close() error {
	_ = l.mem.Close()
	return l.shared.Close()
}

var _ Service = (*Layered)(nil)
