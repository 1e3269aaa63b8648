package usecase

import (
	"context"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
)

// BarFolder folds realtime quotes into daily OHLCV bars and periodically
// upserts the open bars. The bar table replaces rows on (symbol, date), so
// flushing the same day repeatedly is safe.
type BarFolder struct {
	store    domrepo.BarStore
	metrics  domrepo.Metrics
	interval time.Duration

	mu    sync.Mutex
	open  map[string]*models.Bar
	dirty map[string]struct{}

	stopCh  chan struct{}
	started bool
	wg      sync.WaitGroup
}

func NewBarFolder(store domrepo.BarStore, metrics domrepo.Metrics, interval time.Duration) *BarFolder {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BarFolder{
		store:    store,
		metrics:  metrics,
		interval: interval,
		open:     make(map[string]*models.Bar),
		dirty:    make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}
}

func barKey(symbol string, day time.Time) string {
	return symbol + "|" + day.Format("2006-01-02")
}

// Apply folds one quote into its symbol's bar for the quote's UTC day.
func (f *BarFolder) Apply(q *models.Quote) {
	if q == nil || q.Symbol == "" {
		return
	}
	day := q.Timestamp.UTC().Truncate(24 * time.Hour)
	key := barKey(q.Symbol, day)

	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.open[key]
	if !ok {
		f.open[key] = &models.Bar{
			Symbol: q.Symbol,
			Date:   day,
			Open:   q.Price,
			High:   q.Price,
			Low:    q.Price,
			Close:  q.Price,
			Volume: q.Volume,
		}
		f.dirty[key] = struct{}{}
		return
	}
	if q.Price > b.High {
		b.High = q.Price
	}
	if q.Price < b.Low {
		b.Low = q.Price
	}
	b.Close = q.Price
	b.Volume += q.Volume
	f.dirty[key] = struct{}{}
}

// Start launches the periodic flush loop.
func (f *BarFolder) Start(ctx context.Context) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-f.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := f.Flush(ctx); err != nil {
					f.metrics.RecordError("bar_flush")
				}
			}
		}
	}()
}

// Stop stops the flush loop and writes whatever is still open.
func (f *BarFolder) Stop(ctx context.Context) error {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = false
	f.mu.Unlock()
	close(f.stopCh)
	f.wg.Wait()
	return f.Flush(ctx)
}

// Flush upserts all dirty bars, then evicts closed days that persisted.
func (f *BarFolder) Flush(ctx context.Context) error {
	f.mu.Lock()
	if len(f.dirty) == 0 {
		f.mu.Unlock()
		return nil
	}
	keys := make([]string, 0, len(f.dirty))
	batch := make([]*models.Bar, 0, len(f.dirty))
	for key := range f.dirty {
		if b, ok := f.open[key]; ok {
			cp := *b
			batch = append(batch, &cp)
			keys = append(keys, key)
		}
	}
	f.dirty = make(map[string]struct{})
	f.mu.Unlock()

	start := time.Now()
	if err := f.store.StoreBatch(ctx, batch); err != nil {
		// keep unflushed bars dirty for the next tick
		f.mu.Lock()
		for _, k := range keys {
			f.dirty[k] = struct{}{}
		}
		f.mu.Unlock()
		return err
	}
	f.metrics.RecordLatency("bar_flush_seconds", time.Since(start).Seconds())

	today := time.Now().UTC().Truncate(24 * time.Hour)
	f.mu.Lock()
	for key, b := range f.open {
		if b.Date.Before(today) {
			if _, still := f.dirty[key]; !still {
				delete(f.open, key)
			}
		}
	}
	f.mu.Unlock()
	return nil
}
