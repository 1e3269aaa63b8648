package repository

import (
	"context"
	"time"

	"MacroPulse/internal/domain/models"
)

// SeriesReader is the read-only window access the scoring layer consumes.
// Implementations must return ascending order and tolerate truncated or
// empty results; scoring degrades to sentinels, it does not retry.
type SeriesReader interface {
	GetObservations(ctx context.Context, seriesID string, since time.Time, limit int) (models.Series, error)
}

// BarReader provides read-only daily bars for technical feature
// extraction.
type BarReader interface {
	GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error)
}
