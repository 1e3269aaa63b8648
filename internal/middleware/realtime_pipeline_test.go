package middleware

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

type fakeProc struct {
	mu  sync.Mutex
	got []*models.Quote
	err error
}

func (f *fakeProc) Process(_ context.Context, q *models.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, q)
	return nil
}

func (f *fakeProc) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeProc) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func (f *fakeProc) last() *models.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.got) == 0 {
		return nil
	}
	return f.got[len(f.got)-1]
}

type stubMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{errors: map[string]int{}}
}

func (m *stubMetrics) RecordObservation(string, string) {}
func (m *stubMetrics) RecordQuote(string) {}
func (m *stubMetrics) RecordLastValue(string, float64) {}
func (m *stubMetrics) RecordLatency(string, float64) {}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *stubMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validQuote(symbol string) *models.Quote {
	return &models.Quote{Symbol: symbol, Price: 100, Volume: 1, Timestamp: time.Now()}
}

func TestPipelineRejectsInvalidQuotes(t *testing.T) {
	proc := &fakeProc{}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m)

	cases := []*models.Quote{
		nil,
		{Price: 100, Volume: 1, Timestamp: time.Now()},
		{Symbol: "AAPL", Price: 100, Volume: 1},
		{Symbol: "AAPL", Price: -1, Volume: 1, Timestamp: time.Now()},
		{Symbol: "AAPL", Price: 100, Volume: -1, Timestamp: time.Now()},
	}
	for _, q := range cases {
		assert.Error(t, p.Process(context.Background(), q))
	}
	assert.Equal(t, 0, proc.count())
	assert.Equal(t, len(cases), m.errCount("pipeline_validate"))
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProc{}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithMaxRPS(1))

	// second quote for the same symbol lands inside the 1s window
	require.NoError(t, p.Process(context.Background(), validQuote("AAPL")))
	require.NoError(t, p.Process(context.Background(), validQuote("AAPL")))
	assert.Equal(t, 1, proc.count())
	assert.Equal(t, 1, m.errCount("pipeline_throttle"))

	// a different symbol has its own budget
	require.NoError(t, p.Process(context.Background(), validQuote("MSFT")))
	assert.Equal(t, 2, proc.count())
}

func TestPipelineAppliesTransform(t *testing.T) {
	proc := &fakeProc{}
	p := NewRealtimePipeline(proc, newStubMetrics(), WithTransform(func(q *models.Quote) *models.Quote {
		out := *q
		out.Price = q.Price / 100 // cents to dollars
		return &out
	}))

	require.NoError(t, p.Process(context.Background(), validQuote("AAPL")))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, 1.0, proc.last().Price)
}

func TestPipelineRejectsTransformProducingInvalidQuote(t *testing.T) {
	proc := &fakeProc{}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithTransform(func(q *models.Quote) *models.Quote {
		out := *q
		out.Symbol = ""
		return &out
	}))

	assert.Error(t, p.Process(context.Background(), validQuote("AAPL")))
	assert.Equal(t, 0, proc.count())
	assert.Equal(t, 1, m.errCount("pipeline_transform_invalid"))
}

func TestPipelineBuffersAndReplaysOnDownstreamRecovery(t *testing.T) {
	proc := &fakeProc{}
	proc.setErr(fmt.Errorf("backend down"))
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(8))

	err := p.Process(context.Background(), validQuote("AAPL"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline downstream")

	proc.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return proc.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "AAPL", proc.last().Symbol)
}

type fakeBatchProc struct {
	fakeProc
	batches int
}

func (f *fakeBatchProc) ProcessBatch(_ context.Context, quotes []*models.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches++
	f.got = append(f.got, quotes...)
	return nil
}

func (f *fakeBatchProc) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches
}

func TestPipelineReplaysBacklogInBatches(t *testing.T) {
	proc := &fakeBatchProc{}
	proc.setErr(fmt.Errorf("backend down"))
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(16))

	// default per-symbol budget admits a burst of five
	for i := 0; i < 5; i++ {
		require.Error(t, p.Process(context.Background(), validQuote("AAPL")))
	}

	proc.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return proc.count() == 5 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, proc.batchCount())
}

func TestPipelineReplayHonorsBatchCap(t *testing.T) {
	proc := &fakeBatchProc{}
	proc.setErr(fmt.Errorf("backend down"))
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(16), WithReplayBatch(2))

	for i := 0; i < 5; i++ {
		require.Error(t, p.Process(context.Background(), validQuote("AAPL")))
	}

	proc.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return proc.count() == 5 }, 2*time.Second, 10*time.Millisecond)
	// two capped batches, then the leftover quote replays on its own
	assert.Equal(t, 2, proc.batchCount())
}
