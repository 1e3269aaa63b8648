package usecase

import (
	"context"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	mid "MacroPulse/internal/middleware"
)

// QuoteCollector drives the market feed: it owns the connect, read,
// and reconnect cycle and hands each quote to the realtime pipeline
// (or straight to the processor when no pipeline is configured).
type QuoteCollector struct {
	stream  drepo.QuoteStream
	proc    *QuoteProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

func NewQuoteCollector(stream drepo.QuoteStream, proc *QuoteProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *QuoteCollector {
	return &QuoteCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	qCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, qCh, errCh)
	return nil
}

// consume pumps quotes until ctx is cancelled. A stream error (or the
// error channel closing) triggers a reconnect, after which Read is
// called again for the new connection's channels; the stale quote
// channel is nilled out so its closed state cannot spin the loop.
func (c *QuoteCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.metrics.RecordError("stream")
			}
			for {
				if ctx.Err() != nil {
					return
				}
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.metrics.RecordError("reconnect")
					continue
				}
				break
			}
			qCh, errCh = c.stream.Read(ctx)
		case q, ok := <-qCh:
			if !ok {
				// drained after a read failure; wait for the error side
				qCh = nil
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, q)
			} else {
				_ = c.proc.Process(ctx, q)
			}
			c.metrics.RecordLastValue(q.Symbol, q.Price)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *QuoteCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
