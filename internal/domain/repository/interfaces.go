package repository

import (
	"context"

	"MacroPulse/internal/domain/models"
)

// QuoteStream is one live connection to a market data feed. After a
// read failure the owner calls Reconnect followed by Read to obtain
// channels for the replacement connection.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
}

// QuotePublisher fans validated quotes out to the broker. The producer
// behind it is owned and closed by the application lifecycle.
type QuotePublisher interface {
	Publish(ctx context.Context, q *models.Quote) error
	PublishBatch(ctx context.Context, quotes []*models.Quote) error
}

type AlertPublisher interface {
	PublishAlert(ctx context.Context, a models.AlertEvent) error
}

// ObservationStore persists ingested observations. Inserts are single
// rows; the client's async insert mode batches them server side.
type ObservationStore interface {
	Store(ctx context.Context, ob *models.Observation) error
	Health(ctx context.Context) error
}

// BarStore upserts folded daily bars. Reads go through BarReader.
type BarStore interface {
	StoreBatch(ctx context.Context, bars []*models.Bar) error
}

type Metrics interface {
	RecordObservation(source, seriesID string)
	RecordQuote(symbol string)
	RecordError(kind string)
	RecordLastValue(seriesID string, value float64)
	RecordLatency(op string, seconds float64)
}
