package usecase

import (
	"context"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/registry"
)

// DashboardUseCase scores every tracked indicator with bounded parallelism.
type DashboardUseCase struct {
	reg      *registry.Registry
	cards    *ScorecardUseCase
	parallel int
	timeout  time.Duration
}

func NewDashboardUseCase(reg *registry.Registry, cards *ScorecardUseCase, parallel int) *DashboardUseCase {
	if parallel <= 0 {
		parallel = 4
	}
	return &DashboardUseCase{
		reg:      reg,
		cards:    cards,
		parallel: parallel,
		timeout:  30 * time.Second,
	}
}

// Dashboard is the full board: one scorecard per registry entry, in
// registry order. Per-indicator failures are reported inline so one broken
// series never hides the rest of the board.
type Dashboard struct {
	Timestamp  time.Time                    `json:"timestamp"`
	Indicators []*models.IndicatorScorecard `json:"indicators"`
	Errors     map[string]string            `json:"errors,omitempty"`
}

func (uc *DashboardUseCase) GetDashboard(ctx context.Context) (*Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	metas := uc.reg.List()
	out := &Dashboard{
		Timestamp:  time.Now(),
		Indicators: make([]*models.IndicatorScorecard, len(metas)),
		Errors:     map[string]string{},
	}

	sem := make(chan struct{}, uc.parallel)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, meta := range metas {
		wg.Add(1)
		go func(i int, seriesID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			card, err := uc.cards.GetScorecard(ctx, GetScorecardParams{SeriesID: seriesID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors[seriesID] = err.Error()
				return
			}
			out.Indicators[i] = card
		}(i, meta.SeriesID)
	}
	wg.Wait()

	// compact failed slots
	kept := out.Indicators[:0]
	for _, c := range out.Indicators {
		if c != nil {
			kept = append(kept, c)
		}
	}
	out.Indicators = kept

	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out, nil
}
