package scoring

import (
	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/services/stats"
)

const (
	// minimum history before a contextual read means anything
	minContextSamples = 12
	trailingSamples   = 12
	cycleTrendSamples = 6
)

// ContextClassifier places the last value of a window inside its own
// history: percentile, trailing average, volatility of returns, trend,
// cyclical position and a 7-band rank.
type ContextClassifier struct{}

func NewContextClassifier() *ContextClassifier { return &ContextClassifier{} }

// Classify expects values in ascending time order, current value last.
// Fewer than 12 samples return a neutral sentinel instead of failing.
func (c *ContextClassifier) Classify(values []float64) models.HistoricalContext {
	var current float64
	if len(values) > 0 {
		current = values[len(values)-1]
	}

	if len(values) < minContextSamples {
		avg := current
		if len(values) > 0 {
			avg = stats.Mean(values)
		}
		return models.HistoricalContext{
			CurrentValue:     current,
			Percentile:       50,
			TrailingAverage:  avg,
			TrendDirection:   models.TrendSideways,
			CyclicalPosition: models.CycleExpansion,
			Rank:             models.RankAverage,
		}
	}

	pct := stats.PercentileRank(current, values)
	trailing := values
	if len(trailing) > trailingSamples {
		trailing = trailing[len(trailing)-trailingSamples:]
	}

	return models.HistoricalContext{
		CurrentValue:     current,
		Percentile:       pct,
		TrailingAverage:  stats.Mean(trailing),
		Volatility:       stats.StdDev(stats.PercentChanges(values)),
		TrendDirection:   stats.TrendDirection(values),
		CyclicalPosition: cyclicalPosition(pct, values),
		Rank:             rankFor(pct),
	}
}

// cyclicalPosition reads extremes straight off the percentile; in between,
// the direction of the last six samples decides, with the percentile
// breaking ties.
func cyclicalPosition(pct float64, values []float64) models.CyclicalPosition {
	switch {
	case pct >= 90:
		return models.CyclePeak
	case pct <= 10:
		return models.CycleTrough
	}

	recent := values
	if len(recent) > cycleTrendSamples {
		recent = recent[len(recent)-cycleTrendSamples:]
	}
	switch stats.TrendDirection(recent) {
	case models.TrendUpward:
		return models.CycleExpansion
	case models.TrendDownward:
		return models.CycleContraction
	default:
		if pct > 50 {
			return models.CycleExpansion
		}
		return models.CycleContraction
	}
}

func rankFor(pct float64) models.ContextRank {
	switch {
	case pct >= 95:
		return models.RankExtremelyHigh
	case pct >= 80:
		return models.RankHigh
	case pct >= 60:
		return models.RankAboveAverage
	case pct >= 40:
		return models.RankAverage
	case pct >= 20:
		return models.RankBelowAverage
	case pct >= 5:
		return models.RankLow
	default:
		return models.RankExtremelyLow
	}
}

var _ domsvc.ContextClassifier = (*ContextClassifier)(nil)
