package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
)

// QuoteProcessor routes validated quotes to the configured backend: the
// kafka topic other consumers fold from, or the bar folder directly when
// running without a broker.
type QuoteProcessor struct {
	pub     drepo.QuotePublisher
	folder  *BarFolder
	metrics drepo.Metrics
	backend string
}

// NewQuoteProcessor creates a new QuoteProcessor instance.
func NewQuoteProcessor(pub drepo.QuotePublisher, folder *BarFolder, metrics drepo.Metrics, backend string) *QuoteProcessor {
	return &QuoteProcessor{
		pub:     pub,
		folder:  folder,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single quote to the configured backend.
func (p *QuoteProcessor) Process(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, q)
	case "clickhouse":
		p.folder.Apply(q)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process quote: %w", err)
	}

	p.metrics.RecordQuote(q.Symbol)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple quotes in a batch.
func (p *QuoteProcessor) ProcessBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, quotes)
	case "clickhouse":
		for _, q := range quotes {
			p.folder.Apply(q)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, q := range quotes {
		p.metrics.RecordQuote(q.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}
