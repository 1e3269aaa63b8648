package models

import "time"

// Signal is the discrete action mapped from a composite score.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// QualityLabel buckets a confidence score for display.
type QualityLabel string

const (
	QualityHigh   QualityLabel = "HIGH"
	QualityMedium QualityLabel = "MEDIUM"
	QualityLow    QualityLabel = "LOW"
)

type TrendDirection string

const (
	TrendUpward   TrendDirection = "UPWARD"
	TrendDownward TrendDirection = "DOWNWARD"
	TrendSideways TrendDirection = "SIDEWAYS"
)

type CyclicalPosition string

const (
	CyclePeak        CyclicalPosition = "PEAK"
	CycleTrough      CyclicalPosition = "TROUGH"
	CycleExpansion   CyclicalPosition = "EXPANSION"
	CycleContraction CyclicalPosition = "CONTRACTION"
)

// ContextRank is the 7-band contextual ranking of a value against its own
// history.
type ContextRank string

const (
	RankExtremelyHigh ContextRank = "EXTREMELY_HIGH"
	RankHigh          ContextRank = "HIGH"
	RankAboveAverage  ContextRank = "ABOVE_AVERAGE"
	RankAverage       ContextRank = "AVERAGE"
	RankBelowAverage  ContextRank = "BELOW_AVERAGE"
	RankLow           ContextRank = "LOW"
	RankExtremelyLow  ContextRank = "EXTREMELY_LOW"
)

// InsightSignal is the qualitative read of an indicator.
type InsightSignal string

const (
	InsightPositive InsightSignal = "positive"
	InsightNegative InsightSignal = "negative"
	InsightMixed    InsightSignal = "mixed"
	InsightNeutral  InsightSignal = "neutral"
)

type InsightConfidence string

const (
	ConfidenceHigh   InsightConfidence = "high"
	ConfidenceMedium InsightConfidence = "medium"
	ConfidenceLow    InsightConfidence = "low"
)

type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
	AlertWatch    AlertLevel = "watch"
	AlertNormal   AlertLevel = "normal"
)

// JSON field names below are the dashboard contract; the UI reads them
// verbatim.

// ZScoreResult is a value normalized against one historical horizon.
// Recomputed on every call, never persisted.
type ZScoreResult struct {
	Value            float64 `json:"value"`
	HorizonDays      int     `json:"horizonDays"`
	SourceWindowSize int     `json:"sourceWindowSize"`
}

// CompositeSignal is the weighted combination of named component z-scores.
type CompositeSignal struct {
	CompositeZ float64            `json:"compositeZ"`
	Signal     Signal             `json:"signal"`
	Components map[string]float64 `json:"components"`
}

// ConfidenceScore grades how trustworthy the latest reading of an
// indicator is.
type ConfidenceScore struct {
	Score             float64      `json:"confidenceScore"`
	Quality           QualityLabel `json:"dataQuality"`
	FreshnessHours    float64      `json:"freshnessHours"`
	ValidationsPassed int          `json:"validationsPassed"`
	TotalValidations  int          `json:"totalValidations"`
	AnomalyScore      float64      `json:"anomalyScore"`
	ReliabilityIndex  float64      `json:"reliabilityIndex"`
}

// HistoricalContext places the current value inside its own history.
type HistoricalContext struct {
	CurrentValue     float64          `json:"currentValue"`
	Percentile       float64          `json:"historicalPercentile"`
	TrailingAverage  float64          `json:"trailingAverage"`
	Volatility       float64          `json:"volatility"`
	TrendDirection   TrendDirection   `json:"trendDirection"`
	CyclicalPosition CyclicalPosition `json:"cyclicalPosition"`
	Rank             ContextRank      `json:"rank"`
}

// InsightClassification is the rule-engine verdict on level plus trend.
type InsightClassification struct {
	OverallSignal InsightSignal     `json:"overallSignal"`
	LevelSignal   InsightSignal     `json:"levelSignal"`
	TrendSignal   InsightSignal     `json:"trendSignal"`
	Confidence    InsightConfidence `json:"confidence"`
	Reasoning     string            `json:"reasoning"`
	AlertLevel    AlertLevel        `json:"alertLevel"`
}

// DerivedMetrics carries the per-indicator transforms shown next to the
// raw reading. Pointer fields are omitted when the window is too short to
// compute them.
type DerivedMetrics struct {
	Current          float64    `json:"current"`
	Prior            *float64   `json:"prior,omitempty"`
	YoYChange        *float64   `json:"yoyChange,omitempty"`
	PeriodChange     *float64   `json:"periodChange,omitempty"`
	AnnualizedChange *float64   `json:"annualizedChange,omitempty"`
	VsForecast       *float64   `json:"vsForecast,omitempty"`
	VsPrior          *float64   `json:"vsPrior,omitempty"`
	NextRelease      *time.Time `json:"nextRelease,omitempty"`
}

// IndicatorScorecard is the consolidated scoring output for one series.
// Partial failures land in Errors; the card is still served.
type IndicatorScorecard struct {
	SeriesID    string                  `json:"seriesId"`
	DisplayName string                  `json:"displayName"`
	Timestamp   time.Time               `json:"timestamp"`
	ZScores     map[string]ZScoreResult `json:"zScores,omitempty"`
	Confidence  *ConfidenceScore        `json:"confidence,omitempty"`
	Context     *HistoricalContext      `json:"context,omitempty"`
	Insight     *InsightClassification  `json:"insight,omitempty"`
	Derived     *DerivedMetrics         `json:"derived,omitempty"`
	Errors      map[string]string       `json:"errors,omitempty"`
}

// AlertEvent is published when an insight crosses warning or critical.
// LevelZ carries the magnitude behind the classification so consumers can
// rank alerts without refetching the scorecard.
type AlertEvent struct {
	SeriesID    string        `json:"seriesId"`
	DisplayName string        `json:"displayName"`
	Level       AlertLevel    `json:"level"`
	Signal      InsightSignal `json:"signal"`
	Reasoning   string        `json:"reasoning"`
	LevelZ      float64       `json:"levelZ"`
	Timestamp   time.Time     `json:"timestamp"`
}
