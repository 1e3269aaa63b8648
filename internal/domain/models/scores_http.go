package models

// Request bindings for the scoring endpoints. Tags follow the binder
// order: path params, then query, then body, then declared defaults.

type ListIndicatorsRequest struct {
	Category string `query:"category" json:"category" validate:"omitempty,oneof=growth inflation labor monetary_policy sentiment"`
	Type     string `query:"type" json:"type" validate:"omitempty,oneof=leading lagging coincident"`
}

// An omitted window falls through to the server's configured default so
// cached responses and refresh-warmed entries share one key.
type ScorecardRequest struct {
	SeriesID string `param:"series_id" json:"seriesId" validate:"required"`
	Window   int    `query:"window" json:"window" validate:"omitempty,gte=3,lte=240"`
}

type ConfidenceRequest struct {
	SeriesID string `param:"series_id" json:"seriesId" validate:"required"`
	Window   int    `query:"window" json:"window" validate:"omitempty,gte=1,lte=240"`
}

type ContextRequest struct {
	SeriesID string `param:"series_id" json:"seriesId" validate:"required"`
	Window   int    `query:"window" json:"window" validate:"omitempty,gte=1,lte=240"`
}

type HistoryRequest struct {
	SeriesID string `param:"series_id" json:"seriesId" validate:"required"`
	Limit    int    `query:"limit" json:"limit" default:"120" validate:"gte=1,lte=2000"`
	Since    string `query:"since" json:"since" validate:"omitempty,datetime=2006-01-02"`
}

type RefreshRequest struct {
	SeriesID string `param:"series_id" json:"seriesId" validate:"required"`
}

type DashboardRequest struct {
	Category string `query:"category" json:"category" validate:"omitempty,oneof=growth inflation labor monetary_policy sentiment"`
}

type MarketSignalRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" validate:"omitempty,gte=30,lte=2000"`
}
