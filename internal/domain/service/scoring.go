package service

import (
	"time"

	"MacroPulse/internal/domain/models"
)

// Scoring services are pure computation over in-memory windows: no I/O, no
// blocking, no shared state. Context plumbing stays in the layers that
// supply the data.

// Normalizer converts a current value plus a historical window into
// z-scores, one per requested horizon.
type Normalizer interface {
	ZScore(current float64, window []float64) float64
	MultiHorizon(values []float64, horizons []models.Horizon) map[string]models.ZScoreResult
	DeltaZScore(values []float64) float64
}

// CompositeScorer folds named component z-scores into one weighted
// composite and maps it to a discrete signal.
type CompositeScorer interface {
	Aggregate(components map[string]float64) models.CompositeSignal
}

// ConfidenceScorer grades how trustworthy the latest reading is, given its
// trailing window.
type ConfidenceScorer interface {
	Score(latest models.Observation, window models.Series, now time.Time) models.ConfidenceScore
}

// ContextClassifier places the last value of a window inside its own
// history.
type ContextClassifier interface {
	Classify(values []float64) models.HistoricalContext
}

// InsightClassifier runs the level/trend rule engine for one indicator.
type InsightClassifier interface {
	Classify(levelZ, deltaZ float64, meta models.IndicatorMetadata) (models.InsightClassification, error)
}

// DerivedCalculator computes the per-indicator display transforms
// (YoY, period change, annualized, forecast deltas, next release).
type DerivedCalculator interface {
	Compute(series models.Series, meta models.IndicatorMetadata, now time.Time) models.DerivedMetrics
}
