package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/services/features"
)

// MarketSignalUseCase turns daily bars into a composite technical signal.
type MarketSignalUseCase struct {
	bars      domrepo.BarReader
	composite domsvc.CompositeScorer
	depth     int
	timeout   time.Duration
}

func NewMarketSignalUseCase(bars domrepo.BarReader, composite domsvc.CompositeScorer) *MarketSignalUseCase {
	return &MarketSignalUseCase{bars: bars, composite: composite, depth: 260, timeout: 10 * time.Second}
}

// SetDefaultBars overrides the bar depth used when a caller passes none.
// The 50-vs-200 moving average gap needs at least 200 bars to produce a
// nonzero trend component.
func (uc *MarketSignalUseCase) SetDefaultBars(n int) {
	if n > 0 {
		uc.depth = n
	}
}

// DefaultBars is the bar depth applied to requests that omit one.
func (uc *MarketSignalUseCase) DefaultBars() int { return uc.depth }

type GetMarketSignalParams struct {
	Symbol string
	N      int // daily bars to load, zero means the default
}

// MarketSignalResult carries the composite plus enough context to render it.
type MarketSignalResult struct {
	Symbol    string                 `json:"symbol"`
	Timestamp time.Time              `json:"timestamp"`
	Bars      int                    `json:"bars"`
	Composite models.CompositeSignal `json:"composite"`
}

func (uc *MarketSignalUseCase) GetMarketSignal(ctx context.Context, p GetMarketSignalParams) (*MarketSignalResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = uc.depth
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	bars, err := uc.bars.GetLatestNBars(ctx, p.Symbol, p.N)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}

	components := features.ComponentZScores(bars)
	return &MarketSignalResult{
		Symbol:    p.Symbol,
		Timestamp: time.Now(),
		Bars:      len(bars),
		Composite: uc.composite.Aggregate(components),
	}, nil
}
