package scoring

import (
	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/services/stats"
)

// Default horizon sets per observation cadence. Daily follows trading-day
// counts, monthly and quarterly follow sample counts over the same spans.
func DefaultDailyHorizons() []models.Horizon {
	return []models.Horizon{
		{Label: "3m", Days: 90, Samples: 63},
		{Label: "1y", Days: 365, Samples: 252},
		{Label: "3y", Days: 1095, Samples: 756},
		{Label: "5y", Days: 1825, Samples: 1260},
	}
}

func DefaultMonthlyHorizons() []models.Horizon {
	return []models.Horizon{
		{Label: "1y", Days: 365, Samples: 12},
		{Label: "2y", Days: 730, Samples: 24},
	}
}

func DefaultQuarterlyHorizons() []models.Horizon {
	return []models.Horizon{
		{Label: "3y", Days: 1095, Samples: 12},
		{Label: "5y", Days: 1825, Samples: 20},
	}
}

// ZScore returns (current-mean)/stddev against the window. A degenerate
// window (zero variance, too short) yields 0, never NaN or Inf, so
// composites stay finite.
func ZScore(current float64, window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	sd := stats.StdDev(window)
	if sd == 0 {
		return 0
	}
	return (current - stats.Mean(window)) / sd
}

// Normalizer implements multi-horizon z-score normalization. It carries no
// state; directionality is deliberately NOT applied here. A positive score
// always means "above its own history" and economic interpretation belongs
// to the insight classifier.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

func (n *Normalizer) ZScore(current float64, window []float64) float64 {
	return ZScore(current, window)
}

// MultiHorizon scores the latest value against the trailing window of each
// horizon. Horizons longer than the series use every sample available;
// SourceWindowSize records what was actually used.
func (n *Normalizer) MultiHorizon(values []float64, horizons []models.Horizon) map[string]models.ZScoreResult {
	out := make(map[string]models.ZScoreResult, len(horizons))
	if len(values) == 0 {
		return out
	}
	current := values[len(values)-1]
	for _, h := range horizons {
		size := h.Samples
		if size > len(values) {
			size = len(values)
		}
		window := values[len(values)-size:]
		out[h.Label] = models.ZScoreResult{
			Value:            ZScore(current, window),
			HorizonDays:      h.Days,
			SourceWindowSize: size,
		}
	}
	return out
}

// DeltaZScore scores the most recent period-over-period change against the
// distribution of changes in the window. Fewer than three samples give no
// change distribution to speak of and score 0.
func (n *Normalizer) DeltaZScore(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}
	return ZScore(diffs[len(diffs)-1], diffs)
}

var _ domsvc.Normalizer = (*Normalizer)(nil)
