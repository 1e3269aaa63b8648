package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/registry"
	"MacroPulse/pkg/util"
)

// HistoryUseCase provides business logic for retrieving raw observations.
type HistoryUseCase struct {
	reg    *registry.Registry
	reader domrepo.SeriesReader
}

func NewHistoryUseCase(reg *registry.Registry, reader domrepo.SeriesReader) *HistoryUseCase {
	return &HistoryUseCase{reg: reg, reader: reader}
}

type GetHistoryParams struct {
	SeriesID string
	Since    time.Time
	Limit    int
}

type GetHistoryResult struct {
	SeriesID    string       `json:"seriesId"`
	DisplayName string       `json:"displayName"`
	Count       int          `json:"count"`
	Rows        []HistoryRow `json:"rows"`
}

// HistoryRow is the wire form of one observation.
type HistoryRow struct {
	Value       float64   `json:"value"`
	PeriodDate  time.Time `json:"periodDate"`
	ReleaseDate time.Time `json:"releaseDate"`
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	meta, ok := uc.reg.Get(p.SeriesID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, p.SeriesID)
	}
	if p.Limit <= 0 {
		p.Limit = 120
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}
	if !p.Since.IsZero() {
		// Observations are keyed by period start; align a mid-period cutoff
		// down so the period it falls in is included.
		p.Since, _ = util.AlignFromTo(p.Since, p.Since, string(meta.Frequency))
	}

	series, err := uc.reader.GetObservations(ctx, p.SeriesID, p.Since, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	rows := make([]HistoryRow, len(series))
	for i, ob := range series {
		rows[i] = HistoryRow{Value: ob.Value, PeriodDate: ob.PeriodDate, ReleaseDate: ob.ReleaseDate}
	}
	return &GetHistoryResult{
		SeriesID:    meta.SeriesID,
		DisplayName: meta.DisplayName,
		Count:       len(rows),
		Rows:        rows,
	}, nil
}
