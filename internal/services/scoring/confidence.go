package scoring

import (
	"math"
	"time"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/services/stats"
)

const (
	weightFreshness   = 0.25
	weightValidation  = 0.20
	weightAnomaly     = 0.15
	weightReliability = 0.20
	weightSource      = 0.20

	// single trusted upstream source
	sourceReliability = 0.85

	freshnessWindowHours = 168
	totalValidations     = 5
	recencyWindow        = 90 * 24 * time.Hour
)

// BlendConfidence applies the fixed confidence weights to the four
// computed sub-scores plus the source constant, clamped to [0,1]. The
// anomaly score enters as a penalty (1-anomaly).
func BlendConfidence(freshness, validation, anomaly, reliability float64) float64 {
	score := weightFreshness*freshness +
		weightValidation*validation +
		weightAnomaly*(1-anomaly) +
		weightReliability*reliability +
		weightSource*sourceReliability
	return stats.Clamp(score, 0, 1)
}

// QualityFor buckets a blended confidence score.
func QualityFor(score float64) models.QualityLabel {
	switch {
	case score >= 0.8:
		return models.QualityHigh
	case score >= 0.6:
		return models.QualityMedium
	default:
		return models.QualityLow
	}
}

// ConfidenceScorer grades the latest reading of an indicator. It never
// returns an error: zero or malformed history degrades to a fixed
// low-confidence sentinel.
type ConfidenceScorer struct{}

func NewConfidenceScorer() *ConfidenceScorer { return &ConfidenceScorer{} }

// Score expects window in ascending order with latest as its final
// element. The freshness clock runs off the release date when one is
// stamped, the period date otherwise.
func (s *ConfidenceScorer) Score(latest models.Observation, window models.Series, now time.Time) models.ConfidenceScore {
	freshness, hours := freshnessScore(latest, now)

	values := window.Values()
	if len(values) == 0 || window.Validate() != nil {
		return models.ConfidenceScore{
			Score:            0.3,
			Quality:          models.QualityLow,
			FreshnessHours:   hours,
			TotalValidations: totalValidations,
			AnomalyScore:     0.8,
		}
	}

	history := values[:len(values)-1]
	passed := runValidations(latest, history, now)
	validation := float64(passed) / float64(totalValidations)

	anomaly := math.Min(math.Abs(ZScore(latest.Value, values))/3, 1)
	reliability := math.Max(0, 1-stats.CoefficientOfVariation(values))

	score := BlendConfidence(freshness, validation, anomaly, reliability)
	return models.ConfidenceScore{
		Score:             score,
		Quality:           QualityFor(score),
		FreshnessHours:    hours,
		ValidationsPassed: passed,
		TotalValidations:  totalValidations,
		AnomalyScore:      anomaly,
		ReliabilityIndex:  reliability,
	}
}

func freshnessScore(latest models.Observation, now time.Time) (score, hours float64) {
	updated := latest.ReleaseDate
	if updated.IsZero() {
		updated = latest.PeriodDate
	}
	if updated.IsZero() {
		return 0, 0
	}
	hours = now.Sub(updated).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Max(0, 1-hours/freshnessWindowHours), hours
}

// runValidations applies the five fixed checks. Checks that need history
// auto-pass when there is not enough of it; thin series should read as
// unproven, not broken.
func runValidations(latest models.Observation, history []float64, now time.Time) int {
	passed := 0

	// 1: the value is an actual finite number
	if !math.IsNaN(latest.Value) && !math.IsInf(latest.Value, 0) {
		passed++
	}

	// 2: within 3 standard deviations of the historical mean
	if len(history) == 0 {
		passed++
	} else {
		sd := stats.StdDev(history)
		if sd == 0 || math.Abs(latest.Value-stats.Mean(history)) <= 3*sd {
			passed++
		}
	}

	// 3: the observation period is recent
	if !latest.PeriodDate.IsZero() && now.Sub(latest.PeriodDate) <= recencyWindow {
		passed++
	}

	// 4: the observation exists at all (a null upstream value decodes to a
	// zero record)
	if !latest.PeriodDate.IsZero() {
		passed++
	}

	// 5: within 50% of the 3-sample trailing average
	if len(history) < 3 {
		passed++
	} else {
		avg := stats.Mean(history[len(history)-3:])
		if avg == 0 || math.Abs(latest.Value-avg) <= 0.5*math.Abs(avg) {
			passed++
		}
	}

	return passed
}

var _ domsvc.ConfidenceScorer = (*ConfidenceScorer)(nil)
