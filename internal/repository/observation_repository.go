package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	pkgkafka "MacroPulse/pkg/kafka"
)

// ClickHouseObservationStore implements ObservationStore for ClickHouse.
type ClickHouseObservationStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseObservationStore creates ClickHouse observation storage.
func NewClickHouseObservationStore(db *sql.DB, table string) repository.ObservationStore {
	return &ClickHouseObservationStore{db: db, table: table}
}

// Store inserts one observation. The table deduplicates on
// (series_id, period_date), so re-delivered events overwrite in place.
func (s *ClickHouseObservationStore) Store(ctx context.Context, ob *models.Observation) error {
	q := fmt.Sprintf("INSERT INTO %s (series_id, period_date, release_date, value, source) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		ob.SeriesID,
		ob.PeriodDate,
		ob.ReleaseDate,
		ob.Value,
		"fred",
	)
	return err
}

func (s *ClickHouseObservationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ClickHouseBarStore implements BarStore for ClickHouse.
type ClickHouseBarStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseBarStore creates ClickHouse bar storage.
func NewClickHouseBarStore(db *sql.DB, table string) repository.BarStore {
	return &ClickHouseBarStore{db: db, table: table}
}

func (s *ClickHouseBarStore) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b == nil || b.Symbol == "" || b.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				b.Symbol,
				b.Date,
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.Volume,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, bar_date, open, high, low, close, volume) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// KafkaQuotePublisher implements QuotePublisher for Kafka.
type KafkaQuotePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaQuotePublisher creates Kafka quote publisher.
func NewKafkaQuotePublisher(producer *pkgkafka.Producer, topic string) repository.QuotePublisher {
	return &KafkaQuotePublisher{producer: producer, topic: topic}
}

func (p *KafkaQuotePublisher) Publish(ctx context.Context, q *models.Quote) error {
	return p.producer.Publish(ctx, p.topic, []byte(q.Symbol), map[string]interface{}{
		"symbol": q.Symbol,
		"t":      q.Timestamp.Unix(),
		"c":      q.Price,
		"v":      q.Volume,
	})
}

func (p *KafkaQuotePublisher) PublishBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(quotes))
	for i, q := range quotes {
		msgs[i] = pkgkafka.Message{
			Key: []byte(q.Symbol),
			Value: map[string]interface{}{
				"symbol": q.Symbol,
				"t":      q.Timestamp.Unix(),
				"c":      q.Price,
				"v":      q.Volume,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// KafkaAlertPublisher implements AlertPublisher for Kafka.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates Kafka alert publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) repository.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, a models.AlertEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.SeriesID), a)
}
