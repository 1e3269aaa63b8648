package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	pkgch "MacroPulse/pkg/clickhouse"
	applogger "MacroPulse/pkg/logger"
)

// CHSeriesStore is the ClickHouse read path for scoring: indicator
// observations and daily market bars. Queries run FINAL so
// ReplacingMergeTree revisions collapse to the latest release.
type CHSeriesStore struct {
	db        *sql.DB
	lgr       *applogger.Logger
	obsTable  string
	barsTable string
}

// NewCHSeriesStore binds the reader to its tables. Errors propagate to
// callers, which log them; the store itself only traces successful reads.
func NewCHSeriesStore(lgr *applogger.Logger, ch *pkgch.Client, obsTable, barsTable string) *CHSeriesStore {
	return &CHSeriesStore{db: ch.DB(), lgr: lgr, obsTable: obsTable, barsTable: barsTable}
}

// GetObservations returns up to limit most recent observations for a series
// at or after since, in ascending period order.
func (s *CHSeriesStore) GetObservations(ctx context.Context, seriesID string, since time.Time, limit int) (models.Series, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT series_id, value, period_date, release_date
        FROM %s FINAL
        WHERE series_id = ? AND period_date >= ?
        ORDER BY period_date DESC
        LIMIT ?
    `, s.obsTable)

	rows, err := s.db.QueryContext(ctx, q, seriesID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("get observations: %w", err)
	}
	defer rows.Close()

	tmp := make(models.Series, 0, limit)
	for rows.Next() {
		var ob models.Observation
		if err := rows.Scan(&ob.SeriesID, &ob.Value, &ob.PeriodDate, &ob.ReleaseDate); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		tmp = append(tmp, ob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverse(tmp)

	s.lgr.Debug("observations read",
		applogger.String("series", seriesID),
		applogger.Int("rows", len(tmp)),
		applogger.Duration("elapsed", time.Since(start)),
	)
	return tmp, nil
}

// GetLatestNBars returns the most recent n daily bars for a symbol in
// ascending date order.
func (s *CHSeriesStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT symbol, bar_date, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY bar_date DESC
        LIMIT ?
    `, s.barsTable)

	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverse(tmp)

	s.lgr.Debug("bars read",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(tmp)),
		applogger.Duration("elapsed", time.Since(start)),
	)
	return tmp, nil
}

// reverse flips DESC query results into the ascending order scorers expect.
func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
