package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/ratelimit"
	applogger "MacroPulse/pkg/logger"
)

// Proc is the downstream side of the pipeline.
type Proc interface {
	Process(ctx context.Context, q *models.Quote) error
}

// BatchProc is an optional upgrade of Proc. A downstream that accepts
// several quotes per call lets the replay loop clear an outage backlog
// in far fewer writes.
type BatchProc interface {
	ProcessBatch(ctx context.Context, quotes []*models.Quote) error
}

// RealtimePipeline sits between the market feed and the quote processor.
// It validates incoming quotes, caps the per-symbol rate, and buffers
// quotes for replay when the backend rejects them.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	lgr     *applogger.Logger

	maxRPS    int
	limiter   *ratelimit.Limiter
	transform func(*models.Quote) *models.Quote

	bufSize     int
	bufCh       chan *models.Quote
	replayBatch int

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
}

// Options with a zero or empty argument leave the default in place, so
// callers can pass config values without guarding them.
type PipelineOption func(*RealtimePipeline)

// WithMaxRPS caps quotes per second accepted for each symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets how many quotes are held for replay while the
// backend is down.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithReplayBatch bounds one replay write so a deep backlog cannot turn
// into a single huge batch.
func WithReplayBatch(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.replayBatch = n
		}
	}
}

// WithTransform installs a rewrite step applied before rate capping.
// The result is validated again, so a transform cannot smuggle a bad
// quote past the checks.
func WithTransform(fn func(*models.Quote) *models.Quote) PipelineOption {
	return func(p *RealtimePipeline) {
		if fn != nil {
			p.transform = fn
		}
	}
}

// WithLogger attaches a logger for buffer pressure warnings.
func WithLogger(lgr *applogger.Logger) PipelineOption {
	return func(p *RealtimePipeline) {
		if lgr != nil {
			p.lgr = lgr
		}
	}
}

func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:        proc,
		metrics:     metrics,
		maxRPS:      20,
		bufSize:     1000,
		replayBatch: 100,
		limiter:     ratelimit.New(),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Quote, p.bufSize)
	return p
}

// Start launches the replay loop for buffered quotes. Calling it twice
// is a no-op.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.replay(ctx)
}

// Stop ends the replay loop. Quotes still buffered are lost.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Process runs one quote through the pipeline. A throttled quote is
// dropped without error; a downstream failure buffers the quote for
// replay and reports the error.
func (p *RealtimePipeline) Process(ctx context.Context, q *models.Quote) error {
	start := time.Now()

	if err := validateQuote(q); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		q = p.transform(q)
		if err := validateQuote(q); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.limiter.Allow(q.Symbol, float64(p.maxRPS), float64(p.maxRPS)) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, q); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.buffer(q)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// buffer holds a quote for the replay loop, dropping it when the buffer
// is already full.
func (p *RealtimePipeline) buffer(q *models.Quote) {
	select {
	case p.bufCh <- q:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		if p.lgr != nil {
			p.lgr.Warn("pipeline buffer full, dropping quote",
				applogger.String("symbol", q.Symbol),
				applogger.Int("capacity", p.bufSize),
			)
		}
	}
}

// replay retries buffered quotes against the backend, backing off while
// it keeps failing. Quotes that fail again go back into the buffer
// unless it filled up in the meantime.
func (p *RealtimePipeline) replay(ctx context.Context) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case q := <-p.bufCh:
			batch := p.drainBatch(q)
			if err := p.forward(ctx, batch); err != nil {
				p.metrics.RecordError("pipeline_flush")
				for _, qq := range batch {
					select {
					case p.bufCh <- qq:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				}
				select {
				case <-ctx.Done():
					return
				case <-p.stopCh:
					return
				case <-time.After(backoff):
				}
				if backoff < 2*time.Second {
					backoff *= 2
				}
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

// drainBatch collects whatever else is already buffered, up to the batch
// cap. Without a batch-capable downstream each quote replays on its own.
func (p *RealtimePipeline) drainBatch(first *models.Quote) []*models.Quote {
	batch := []*models.Quote{first}
	if _, ok := p.proc.(BatchProc); !ok {
		return batch
	}
	for len(batch) < p.replayBatch {
		select {
		case q := <-p.bufCh:
			batch = append(batch, q)
		default:
			return batch
		}
	}
	return batch
}

func (p *RealtimePipeline) forward(ctx context.Context, batch []*models.Quote) error {
	if bp, ok := p.proc.(BatchProc); ok && len(batch) > 1 {
		return bp.ProcessBatch(ctx, batch)
	}
	return p.proc.Process(ctx, batch[0])
}

func validateQuote(q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("nil quote")
	}
	if q.Symbol == "" {
		return fmt.Errorf("quote without symbol")
	}
	if q.Timestamp.IsZero() {
		return fmt.Errorf("quote without timestamp")
	}
	if q.Price < 0 || q.Volume < 0 {
		return fmt.Errorf("negative price or volume for %s", q.Symbol)
	}
	return nil
}
