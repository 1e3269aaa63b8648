package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

type fakeBarStore struct {
	mu      sync.Mutex
	batches [][]*models.Bar
	err     error
}

func (f *fakeBarStore) StoreBatch(_ context.Context, bars []*models.Bar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := make([]*models.Bar, len(bars))
	copy(cp, bars)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeBarStore) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBarStore) flushed() []*models.Bar {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Bar
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordObservation(string, string) {}
func (nopMetrics) RecordQuote(string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLastValue(string, float64) {}
func (nopMetrics) RecordLatency(string, float64) {}

func quoteAt(symbol string, price, volume float64, ts time.Time) *models.Quote {
	return &models.Quote{Symbol: symbol, Price: price, Volume: volume, Timestamp: ts}
}

func TestBarFolderFoldsQuotesIntoDailyBar(t *testing.T) {
	store := &fakeBarStore{}
	f := NewBarFolder(store, nopMetrics{}, time.Minute)

	ts := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	f.Apply(quoteAt("AAPL", 100, 10, ts))
	f.Apply(quoteAt("AAPL", 105, 5, ts.Add(time.Minute)))
	f.Apply(quoteAt("AAPL", 98, 2, ts.Add(2*time.Minute)))

	require.NoError(t, f.Flush(context.Background()))

	bars := store.flushed()
	require.Len(t, bars, 1)
	b := bars[0]
	assert.Equal(t, "AAPL", b.Symbol)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), b.Date)
	assert.Equal(t, 100.0, b.Open)
	assert.Equal(t, 105.0, b.High)
	assert.Equal(t, 98.0, b.Low)
	assert.Equal(t, 98.0, b.Close)
	assert.Equal(t, 17.0, b.Volume)
}

func TestBarFolderSeparatesSymbolsAndDays(t *testing.T) {
	store := &fakeBarStore{}
	f := NewBarFolder(store, nopMetrics{}, time.Minute)

	day1 := time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	f.Apply(quoteAt("AAPL", 100, 1, day1))
	f.Apply(quoteAt("AAPL", 101, 1, day2))
	f.Apply(quoteAt("MSFT", 300, 1, day1))

	require.NoError(t, f.Flush(context.Background()))

	bars := store.flushed()
	require.Len(t, bars, 3)
	byKey := map[string]*models.Bar{}
	for _, b := range bars {
		byKey[b.Symbol+"|"+b.Date.Format("2006-01-02")] = b
	}
	assert.Contains(t, byKey, "AAPL|2025-06-10")
	assert.Contains(t, byKey, "AAPL|2025-06-11")
	assert.Contains(t, byKey, "MSFT|2025-06-10")
	assert.Equal(t, 101.0, byKey["AAPL|2025-06-11"].Open)
}

func TestBarFolderRetainsDirtyOnStoreError(t *testing.T) {
	store := &fakeBarStore{err: fmt.Errorf("clickhouse down")}
	f := NewBarFolder(store, nopMetrics{}, time.Minute)

	f.Apply(quoteAt("AAPL", 100, 1, time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)))
	require.Error(t, f.Flush(context.Background()))
	assert.Empty(t, store.flushed())

	store.setErr(nil)
	require.NoError(t, f.Flush(context.Background()))
	bars := store.flushed()
	require.Len(t, bars, 1)
	assert.Equal(t, 100.0, bars[0].Close)
}

func TestBarFolderEvictsClosedDaysAfterFlush(t *testing.T) {
	store := &fakeBarStore{}
	f := NewBarFolder(store, nopMetrics{}, time.Minute)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	f.Apply(quoteAt("AAPL", 100, 5, yesterday))
	require.NoError(t, f.Flush(context.Background()))

	// the closed day was evicted, so a late quote opens a fresh bar
	// instead of extending the persisted one
	f.Apply(quoteAt("AAPL", 120, 1, yesterday))
	require.NoError(t, f.Flush(context.Background()))

	bars := store.flushed()
	require.Len(t, bars, 2)
	late := bars[1]
	assert.Equal(t, 120.0, late.Open)
	assert.Equal(t, 1.0, late.Volume)
}

func TestBarFolderFlushWithNothingDirtyIsNoop(t *testing.T) {
	store := &fakeBarStore{}
	f := NewBarFolder(store, nopMetrics{}, time.Minute)
	require.NoError(t, f.Flush(context.Background()))
	assert.Empty(t, store.flushed())
}

func TestBarFolderStopFlushesOpenBars(t *testing.T) {
	store := &fakeBarStore{}
	f := NewBarFolder(store, nopMetrics{}, time.Hour)

	f.Start(context.Background())
	f.Apply(quoteAt("AAPL", 100, 1, time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)))
	require.NoError(t, f.Stop(context.Background()))

	bars := store.flushed()
	require.Len(t, bars, 1)
	assert.Equal(t, "AAPL", bars[0].Symbol)
}
