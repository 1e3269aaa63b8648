package cache

import (
	"context"
	"testing"
	"time"
)

func newTestMemory(t *testing.T, opts ...MemoryOption) *Memory {
	t.Helper()
	m := NewMemory(opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemorySetGet(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	if err := m.Set(ctx, "scorecard:CPIAUCSL:24", []byte(`{"ok":true}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := m.Get(ctx, "scorecard:CPIAUCSL:24")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(b) != `{"ok":true}` {
		t.Fatalf("unexpected payload %q", b)
	}
}

func TestMemoryMissIsNotError(t *testing.T) {
	m := newTestMemory(t)
	b, ok, err := m.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || b != nil {
		t.Fatalf("expected miss, got ok=%v payload=%q", ok, b)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestMemoryEvictsOldestAtCapacity(t *testing.T) {
	m := newTestMemory(t, WithMemoryMaxEntries(2))
	ctx := context.Background()

	_ = m.Set(ctx, "a", []byte("1"), time.Minute)
	_ = m.Set(ctx, "b", []byte("2"), time.Minute)
	// touch "a" so "b" becomes the LRU victim
	if _, ok, _ := m.Get(ctx, "a"); !ok {
		t.Fatalf("expected a")
	}
	_ = m.Set(ctx, "c", []byte("3"), time.Minute)

	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Fatalf("expected b evicted")
	}
	if _, ok, _ := m.Get(ctx, "a"); !ok {
		t.Fatalf("expected a kept")
	}
	if _, ok, _ := m.Get(ctx, "c"); !ok {
		t.Fatalf("expected c kept")
	}
}

func TestMemoryDeleteByPrefixPattern(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	_ = m.Set(ctx, "scorecard:UNRATE:24", []byte("1"), time.Minute)
	_ = m.Set(ctx, "scorecard:UNRATE:36", []byte("2"), time.Minute)
	_ = m.Set(ctx, "scorecard:GDPC1:24", []byte("3"), time.Minute)

	if err := m.DeleteByPattern(ctx, "scorecard:UNRATE:*"); err != nil {
		t.Fatalf("delete by pattern: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "scorecard:UNRATE:24"); ok {
		t.Fatalf("expected UNRATE:24 gone")
	}
	if _, ok, _ := m.Get(ctx, "scorecard:UNRATE:36"); ok {
		t.Fatalf("expected UNRATE:36 gone")
	}
	if _, ok, _ := m.Get(ctx, "scorecard:GDPC1:24"); !ok {
		t.Fatalf("expected GDPC1 untouched")
	}
}

func TestMemoryTryLock(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	ok, err := m.TryLock(ctx, "refresh:lock:UNRATE", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first lock to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = m.TryLock(ctx, "refresh:lock:UNRATE", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second lock to fail, ok=%v err=%v", ok, err)
	}
	if err := m.Unlock(ctx, "refresh:lock:UNRATE"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ok, _ = m.TryLock(ctx, "refresh:lock:UNRATE", time.Minute)
	if !ok {
		t.Fatalf("expected lock reacquired after unlock")
	}
}
