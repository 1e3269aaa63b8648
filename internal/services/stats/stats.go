package stats

import (
	"math"

	"MacroPulse/internal/domain/models"
)

// CVSentinel stands in for the coefficient of variation when the mean is
// zero. Any value >= 1 zeroes the reliability index downstream, so the
// exact magnitude only matters for display.
const CVSentinel = 10.0

// Mean returns the arithmetic mean. Empty input yields NaN; callers guard.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation (divide by N, not N-1),
// matching every call site in the scoring pipeline.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := Mean(values)
	var sum2 float64
	for _, v := range values {
		d := v - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(values)))
}

// PercentileRank ranks value among values as (count below)/N*100. A value
// above every sample ranks 100, the minimum ranks 0.
func PercentileRank(value float64, values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	below := 0
	for _, v := range values {
		if v < value {
			below++
		}
	}
	return float64(below) / float64(len(values)) * 100
}

// CoefficientOfVariation returns stddev/|mean|. A zero mean returns
// CVSentinel instead of Inf so nothing non-finite enters the composites.
func CoefficientOfVariation(values []float64) float64 {
	m := Mean(values)
	if m == 0 || math.IsNaN(m) {
		return CVSentinel
	}
	return StdDev(values) / math.Abs(m)
}

// TrendThreshold is the relative change between window halves below which
// a series counts as SIDEWAYS.
const TrendThreshold = 0.05

// TrendDirection compares the mean of the first half of the window to the
// mean of the second half. A relative change beyond the threshold decides
// the direction, otherwise SIDEWAYS.
func TrendDirection(values []float64) models.TrendDirection {
	if len(values) < 2 {
		return models.TrendSideways
	}
	half := len(values) / 2
	first := Mean(values[:half])
	second := Mean(values[half:])
	if first == 0 {
		return models.TrendSideways
	}
	change := (second - first) / math.Abs(first)
	switch {
	case change > TrendThreshold:
		return models.TrendUpward
	case change < -TrendThreshold:
		return models.TrendDownward
	default:
		return models.TrendSideways
	}
}

// PercentChanges returns period-over-period percentage returns
// (v[i]-v[i-1])/v[i-1]. Zero predecessors are skipped to keep the result
// finite.
func PercentChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (values[i]-prev)/prev)
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
