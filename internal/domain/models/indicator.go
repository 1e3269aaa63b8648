package models

import (
	"fmt"
	"math"
	"time"
)

// Directionality says whether a high raw value is economically favorable.
type Directionality string

const (
	DirectionalityDirect  Directionality = "direct"  // high is good (GDP, payrolls)
	DirectionalityInverse Directionality = "inverse" // high is bad (unemployment, CPI)
)

// Family selects the override branch in the insight classifier.
type Family string

const (
	FamilyGrowth     Family = "growth"
	FamilyInflation  Family = "inflation"
	FamilyEmployment Family = "employment"
	FamilyRates      Family = "rates"
	FamilySentiment  Family = "sentiment"
	FamilyGeneral    Family = "general"
)

// IndicatorType classifies when a series moves relative to the cycle.
type IndicatorType string

const (
	TypeLeading    IndicatorType = "leading"
	TypeLagging    IndicatorType = "lagging"
	TypeCoincident IndicatorType = "coincident"
)

type Unit string

const (
	UnitPercent  Unit = "percent"
	UnitIndex    Unit = "index"
	UnitRate     Unit = "rate"
	UnitCount    Unit = "count"
	UnitCurrency Unit = "currency"
)

type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
)

// IndicatorMetadata is configuration, not data: set once at startup and
// read-only during scoring. Directionality and Family drive the insight
// classifier; misconfiguring either corrupts every downstream signal, so
// registry validation rejects unknown values instead of defaulting.
type IndicatorMetadata struct {
	SeriesID       string         `json:"seriesId"`
	DisplayName    string         `json:"displayName"`
	Type           IndicatorType  `json:"type"`
	Category       string         `json:"category"`
	Family         Family         `json:"family"`
	Unit           Unit           `json:"unit"`
	Frequency      Frequency      `json:"frequency"`
	Directionality Directionality `json:"directionality"`
	Forecast       float64        `json:"forecast,omitempty"` // consensus estimate for the next print, 0 if none
	HasForecast    bool           `json:"hasForecast"`
	PriorOffset    int            `json:"priorOffset,omitempty"` // periods back to the "prior" reading shown alongside
}

// Horizon names one lookback window for z-score normalization. Samples is
// the window length in observations, Days the nominal calendar span it
// approximates.
type Horizon struct {
	Label   string `yaml:"label"`
	Days    int    `yaml:"days"`
	Samples int    `yaml:"samples"`
}

// Observation is one raw data point for one series. Immutable once
// ingested; the scoring core only ever reads it.
type Observation struct {
	SeriesID    string
	Value       float64
	PeriodDate  time.Time
	ReleaseDate time.Time
}

// Series is a time-ordered window of observations for one indicator.
// Scoring never mutates a Series, it only derives values from slices of it.
type Series []Observation

// Values returns the raw values in series order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, ob := range s {
		out[i] = ob.Value
	}
	return out
}

// Latest returns the most recent observation, assuming ascending order.
func (s Series) Latest() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Validate rejects malformed windows: out-of-order timestamps or
// non-finite values. Scoring prefers sentinels over errors, but a series
// that lies about its ordering would silently miscompute every percentile
// and trend, so it is refused outright.
func (s Series) Validate() error {
	for i, ob := range s {
		if math.IsNaN(ob.Value) || math.IsInf(ob.Value, 0) {
			return fmt.Errorf("series %s: non-finite value at index %d", ob.SeriesID, i)
		}
		if i > 0 && ob.PeriodDate.Before(s[i-1].PeriodDate) {
			return fmt.Errorf("series %s: observations out of order at index %d", ob.SeriesID, i)
		}
	}
	return nil
}
