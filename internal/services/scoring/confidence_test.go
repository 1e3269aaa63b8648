package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func monthlySeries(id string, end time.Time, values []float64) models.Series {
	s := make(models.Series, len(values))
	for i, v := range values {
		d := end.AddDate(0, -(len(values) - 1 - i), 0)
		s[i] = models.Observation{SeriesID: id, Value: v, PeriodDate: d, ReleaseDate: d}
	}
	return s
}

func TestBlendConfidenceStaleDataScenario(t *testing.T) {
	// 200h stale (freshness 0), 3/5 validations, anomaly 0.1, reliability 0.9
	score := BlendConfidence(0, 0.6, 0.1, 0.9)
	assert.InDelta(t, 0.605, score, 1e-9)
	assert.Equal(t, models.QualityMedium, QualityFor(score))
}

func TestQualityForBands(t *testing.T) {
	assert.Equal(t, models.QualityHigh, QualityFor(0.80))
	assert.Equal(t, models.QualityMedium, QualityFor(0.7999))
	assert.Equal(t, models.QualityMedium, QualityFor(0.60))
	assert.Equal(t, models.QualityLow, QualityFor(0.5999))
}

func TestScoreFreshHealthySeries(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	values := []float64{3.0, 3.1, 2.9, 3.0, 3.2, 3.1, 3.0, 2.9, 3.1, 3.0, 3.2, 3.0,
		2.9, 3.1, 3.0, 3.0, 3.1, 2.9, 3.0, 3.2, 3.1, 3.0, 2.9, 3.05}
	series := monthlySeries("CPIAUCSL", now.Add(-2*time.Hour), values)
	latest, ok := series.Latest()
	require.True(t, ok)

	got := NewConfidenceScorer().Score(latest, series, now)
	assert.Equal(t, models.QualityHigh, got.Quality)
	assert.Equal(t, 5, got.ValidationsPassed)
	assert.Equal(t, 5, got.TotalValidations)
	assert.Greater(t, got.Score, 0.8)
	assert.Less(t, got.AnomalyScore, 0.5)
	assert.Greater(t, got.ReliabilityIndex, 0.9)
}

func TestScoreEmptyHistorySentinel(t *testing.T) {
	got := NewConfidenceScorer().Score(models.Observation{}, nil, time.Now())
	assert.Equal(t, 0.3, got.Score)
	assert.Equal(t, models.QualityLow, got.Quality)
	assert.Equal(t, 0.8, got.AnomalyScore)
	assert.Equal(t, 0, got.ValidationsPassed)
}

func TestScoreMalformedHistorySentinel(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	series := models.Series{
		{SeriesID: "X", Value: 1, PeriodDate: now},
		{SeriesID: "X", Value: 2, PeriodDate: now.AddDate(0, -1, 0)}, // out of order
	}
	latest, _ := series.Latest()
	got := NewConfidenceScorer().Score(latest, series, now)
	assert.Equal(t, 0.3, got.Score)
	assert.Equal(t, models.QualityLow, got.Quality)
}

func TestScoreFreshnessMonotonicity(t *testing.T) {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	values := []float64{3.0, 3.1, 2.9, 3.0, 3.2, 3.1, 3.0, 2.9, 3.1, 3.0, 3.2, 3.05}
	series := monthlySeries("UNRATE", base, values)
	latest, _ := series.Latest()
	scorer := NewConfidenceScorer()

	prev := scorer.Score(latest, series, base.Add(1*time.Hour))
	for _, h := range []time.Duration{24, 72, 168, 400, 2400} {
		cur := scorer.Score(latest, series, base.Add(h*time.Hour))
		assert.LessOrEqual(t, cur.Score, prev.Score, "staleness must never raise confidence")
		prev = cur
	}
}

func TestScoreOutlierRaisesAnomaly(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	values := []float64{3.0, 3.1, 2.9, 3.0, 3.2, 3.1, 3.0, 2.9, 3.1, 3.0, 3.2, 9.5}
	series := monthlySeries("HOUST", now, values)
	latest, _ := series.Latest()

	got := NewConfidenceScorer().Score(latest, series, now)
	assert.Equal(t, 1.0, got.AnomalyScore)
	// outlier also breaks the 3-sigma and trailing-average checks
	assert.LessOrEqual(t, got.ValidationsPassed, 3)
}

func TestScoreIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	values := []float64{1.2, 1.3, 1.1, 1.25, 1.28, 1.22, 1.19, 1.31, 1.27, 1.24, 1.26, 1.3}
	series := monthlySeries("GS10", now, values)
	latest, _ := series.Latest()
	scorer := NewConfidenceScorer()
	assert.Equal(t, scorer.Score(latest, series, now), scorer.Score(latest, series, now))
}
