package models

import "time"

// ObservationEvent is the wire form of one data point on the ingest topic.
// Field names follow the upstream fetcher payloads (snake_case).
type ObservationEvent struct {
	SeriesID    string    `json:"series_id"`
	Indicator   string    `json:"indicator"`
	Value       float64   `json:"value"`
	Category    string    `json:"category"`
	Frequency   string    `json:"frequency"`
	Unit        string    `json:"unit"`
	PeriodDate  time.Time `json:"period_date"`
	ReleaseDate time.Time `json:"release_date"`
}

// Observation converts the wire event into the domain record.
func (e ObservationEvent) Observation() Observation {
	return Observation{
		SeriesID:    e.SeriesID,
		Value:       e.Value,
		PeriodDate:  e.PeriodDate,
		ReleaseDate: e.ReleaseDate,
	}
}
