package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/service/alerts"
	"MacroPulse/internal/services/scoring"
)

// ErrUnknownSeries marks requests for series the registry does not track.
var ErrUnknownSeries = errors.New("unknown series")

// ScorecardUseCase assembles the full per-indicator scorecard: multi-horizon
// z-scores, confidence, historical context, derived metrics, and the insight
// classification on top.
type ScorecardUseCase struct {
	reg     *registry.Registry
	reader  domrepo.SeriesReader
	norm    domsvc.Normalizer
	conf    domsvc.ConfidenceScorer
	cls     domsvc.ContextClassifier
	insight domsvc.InsightClassifier
	derived domsvc.DerivedCalculator
	alerts  *alerts.Dispatcher
	window  int
	timeout time.Duration
}

func NewScorecardUseCase(
	reg *registry.Registry,
	reader domrepo.SeriesReader,
	norm domsvc.Normalizer,
	conf domsvc.ConfidenceScorer,
	cls domsvc.ContextClassifier,
	insight domsvc.InsightClassifier,
	derived domsvc.DerivedCalculator,
) *ScorecardUseCase {
	return &ScorecardUseCase{
		reg:     reg,
		reader:  reader,
		norm:    norm,
		conf:    conf,
		cls:     cls,
		insight: insight,
		derived: derived,
		window:  24,
		timeout: 10 * time.Second,
	}
}

// SetAlerts wires the optional alert dispatcher.
func (uc *ScorecardUseCase) SetAlerts(d *alerts.Dispatcher) { uc.alerts = d }

// SetDefaultWindow overrides the window used when a caller passes none.
func (uc *ScorecardUseCase) SetDefaultWindow(n int) {
	if n > 0 {
		uc.window = n
	}
}

// DefaultWindow is the window applied to requests that omit one. The
// refresh worker warms the cache under this window, so the API layer
// resolves omitted windows through it before building cache keys.
func (uc *ScorecardUseCase) DefaultWindow() int { return uc.window }

type GetScorecardParams struct {
	SeriesID string
	Window   int // samples fed to confidence/context, zero means the default
}

// HorizonsFor returns the default horizon set for a reporting frequency.
func HorizonsFor(freq models.Frequency) []models.Horizon {
	switch freq {
	case models.FreqDaily:
		return scoring.DefaultDailyHorizons()
	case models.FreqQuarterly:
		return scoring.DefaultQuarterlyHorizons()
	default:
		return scoring.DefaultMonthlyHorizons()
	}
}

// fetchLimit sizes the read window so the widest horizon and the
// confidence/context window both fit.
func fetchLimit(window int, horizons []models.Horizon) int {
	limit := window
	for _, h := range horizons {
		if h.Samples > limit {
			limit = h.Samples
		}
	}
	return limit
}

func (uc *ScorecardUseCase) GetScorecard(ctx context.Context, p GetScorecardParams) (*models.IndicatorScorecard, error) {
	meta, ok := uc.reg.Get(p.SeriesID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, p.SeriesID)
	}
	if p.Window <= 0 {
		p.Window = uc.window
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	horizons := HorizonsFor(meta.Frequency)
	series, err := uc.reader.GetObservations(ctx, p.SeriesID, time.Time{}, fetchLimit(p.Window, horizons))
	if err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("validate series: %w", err)
	}

	now := time.Now()
	card := &models.IndicatorScorecard{
		SeriesID:    meta.SeriesID,
		DisplayName: meta.DisplayName,
		Timestamp:   now,
		Errors:      map[string]string{},
	}

	values := series.Values()
	window := series
	if len(window) > p.Window {
		window = window[len(window)-p.Window:]
	}
	latest, _ := series.Latest()

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	run := func(name string, fn func() interface{}) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var v interface{}
			var err error
			func() {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%s panic: %v", name, r)
					}
				}()
				v = fn()
			}()
			ch <- item{name, v, err}
		}()
	}

	run("zscores", func() interface{} {
		return uc.norm.MultiHorizon(values, horizons)
	})
	run("confidence", func() interface{} {
		return uc.conf.Score(latest, window, now)
	})
	run("context", func() interface{} {
		return uc.cls.Classify(window.Values())
	})
	run("derived", func() interface{} {
		return uc.derived.Compute(series, meta, now)
	})

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			card.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "zscores":
			card.ZScores = it.val.(map[string]models.ZScoreResult)
		case "confidence":
			v := it.val.(models.ConfidenceScore)
			card.Confidence = &v
		case "context":
			v := it.val.(models.HistoricalContext)
			card.Context = &v
		case "derived":
			v := it.val.(models.DerivedMetrics)
			card.Derived = &v
		}
	}

	var levelZ, deltaZ float64
	if len(values) > 0 {
		levelZ = uc.norm.ZScore(latest.Value, values)
		deltaZ = uc.norm.DeltaZScore(values)
	}
	if ins, err := uc.insight.Classify(levelZ, deltaZ, meta); err != nil {
		card.Errors["insight"] = err.Error()
	} else {
		card.Insight = &ins
		if uc.alerts != nil {
			if ev, fire := alerts.FromInsight(meta, ins, levelZ, now); fire {
				uc.alerts.Dispatch(ev)
			}
		}
	}

	if len(card.Errors) == 0 {
		card.Errors = nil
	}
	return card, nil
}
