package kafka

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestJitteredBackoffStaysInRange(t *testing.T) {
	min, max := 250*time.Millisecond, 5*time.Second
	for attempt := 1; attempt <= 12; attempt++ {
		d := jitteredBackoff(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v outside (0, %v]", attempt, d, max)
		}
	}
}

func TestJitteredBackoffGuardsDegenerateRange(t *testing.T) {
	if d := jitteredBackoff(0, 0, 1); d <= 0 {
		t.Fatalf("zero range produced %v", d)
	}
	// max below min must not underflow the cap
	if d := jitteredBackoff(time.Second, time.Millisecond, 5); d > time.Second {
		t.Fatalf("inverted range produced %v", d)
	}
}

func TestEncodeValue(t *testing.T) {
	raw := []byte(`{"already":"encoded"}`)
	got, err := encodeValue(raw)
	if err != nil {
		t.Fatalf("encode bytes: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("byte payload was re-encoded: %s", got)
	}

	got, err = encodeValue("plain")
	if err != nil {
		t.Fatalf("encode string: %v", err)
	}
	if string(got) != "plain" {
		t.Fatalf("string payload mangled: %s", got)
	}

	got, err = encodeValue(struct {
		SeriesID string `json:"seriesId"`
	}{SeriesID: "CPIAUCSL"})
	if err != nil {
		t.Fatalf("encode struct: %v", err)
	}
	if string(got) != `{"seriesId":"CPIAUCSL"}` {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatal("expected an error without brokers")
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(nil); err == nil {
		t.Fatal("expected an error without brokers")
	}
}

func TestPartitionLockIsStableUnderConcurrency(t *testing.T) {
	c := &Consumer{partLocks: make(map[string]map[int]*sync.Mutex)}

	const n = 16
	locks := make([]*sync.Mutex, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locks[i] = c.partitionLock("economic.observations", 3)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if locks[i] != locks[0] {
			t.Fatal("same partition handed out different locks")
		}
	}
	if c.partitionLock("economic.observations", 4) == locks[0] {
		t.Fatal("distinct partitions share a lock")
	}
}
