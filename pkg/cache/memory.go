package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	payload  []byte
	expireAt time.Time
	lastUsed time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// Memory is an in-process byte cache with TTL expiry and LRU eviction.
// It backs the scoring API on deployments without redis and serves as the
// local layer of Layered.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*memEntry
	maxEntries int
	defaultTTL time.Duration
	sweeper    *time.Ticker
	stop       chan struct{}
}

// NewMemory creates an in-process cache and starts its expiry sweeper.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := &MemoryConfig{
		MaxEntries:    1000,
		SweepInterval: 5 * time.Minute,
		DefaultTTL:    30 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	m := &Memory{
		entries:    make(map[string]*memEntry),
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		sweeper:    time.NewTicker(cfg.SweepInterval),
		stop:       make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(now) {
		delete(m.entries, key)
		return nil, false, nil
	}
	e.lastUsed = now
	return e.payload, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}
	m.entries[key] = &memEntry{
		payload:  value,
		expireAt: now.Add(ttl),
		lastUsed: now,
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// DeleteByPattern supports trailing-star prefix patterns only, which is all
// the scoring API emits. Anything else clears the whole cache rather than
// silently matching nothing.
func (m *Memory) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok || strings.Contains(prefix, "*") {
		m.entries = make(map[string]*memEntry)
		return nil
	}
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *Memory) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	m.entries[key] = &memEntry{
		payload:  []byte("locked"),
		expireAt: now.Add(ttl),
		lastUsed: now,
	}
	return true, nil
}

func (m *Memory) Unlock(ctx context.Context, key string) error {
	return m.Delete(ctx, key)
}

// evictOldest drops the least recently used entry. Caller holds the lock.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestUse time.Time
	for key, e := range m.entries {
		if oldestKey == "" || e.lastUsed.Before(oldestUse) {
			oldestKey = key
			oldestUse = e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) sweep() {
	for {
		select {
		case <-m.stop:
			return
		case <-m.sweeper.C:
			now := time.Now()
			m.mu.Lock()
			for key, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Close stops the expiry sweeper.
func (m *Memory) Close() error {
	m.sweeper.Stop()
	close(m.stop)
	return nil
}

var _ Service = (*Memory)(nil)
