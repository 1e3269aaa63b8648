package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/services/derived"
	"MacroPulse/internal/services/scoring"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	applogger "MacroPulse/pkg/logger"
)

type stubReader struct {
	mu       sync.Mutex
	series   models.Series
	err      error
	calls    int
	gotLimit int
}

func (s *stubReader) GetObservations(_ context.Context, _ string, _ time.Time, limit int) (models.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func (s *stubReader) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubBars struct {
	bars      []models.Bar
	err       error
	gotSymbol string
	gotN      int
}

func (s *stubBars) GetLatestNBars(_ context.Context, symbol string, n int) ([]models.Bar, error) {
	s.gotSymbol = symbol
	s.gotN = n
	if s.err != nil {
		return nil, s.err
	}
	if n < len(s.bars) {
		return s.bars[len(s.bars)-n:], nil
	}
	return s.bars, nil
}

type stubQueue struct {
	gotType    string
	gotPayload interface{}
	err        error
}

func (q *stubQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.gotType = msgType
	q.gotPayload = payload
	return q.err
}

type apiEnv struct {
	e      *echo.Echo
	h      *ScoresHandler
	reader *stubReader
	bars   *stubBars
	reg    *registry.Registry
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	lgr, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	reg, err := registry.New()
	require.NoError(t, err)

	reader := &stubReader{series: monthlyObs("UNRATE", 30, 4.0, 0.05)}
	bars := &stubBars{bars: dailyBars("SPY", 300)}

	cards := usecase.NewScorecardUseCase(reg, reader,
		scoring.NewNormalizer(),
		scoring.NewConfidenceScorer(),
		scoring.NewContextClassifier(),
		scoring.NewInsightClassifier(),
		derived.NewCalculator(),
	)
	dash := usecase.NewDashboardUseCase(reg, cards, 4)
	market := usecase.NewMarketSignalUseCase(bars, scoring.NewCompositeScorer(scoring.DefaultCompositeConfig()))
	hist := usecase.NewHistoryUseCase(reg, reader)

	h := NewScoresHandler(lgr, reg, cards, dash, market, hist)
	e := echo.New()
	h.RegisterRoutes(e)

	return &apiEnv{e: e, h: h, reader: reader, bars: bars, reg: reg}
}

func monthlyObs(id string, n int, base, step float64) models.Series {
	now := time.Now().UTC()
	s := make(models.Series, 0, n)
	for i := n - 1; i >= 0; i-- {
		pd := now.AddDate(0, -i, 0)
		s = append(s, models.Observation{
			SeriesID:    id,
			Value:       base + step*float64(n-1-i),
			PeriodDate:  pd,
			ReleaseDate: pd,
		})
	}
	return s
}

func dailyBars(symbol string, n int) []models.Bar {
	now := time.Now().UTC()
	bars := make([]models.Bar, 0, n)
	for i := n - 1; i >= 0; i-- {
		px := 100 + 0.3*float64(n-1-i)
		bars = append(bars, models.Bar{
			Symbol: symbol,
			Date:   now.AddDate(0, 0, -i),
			Open:   px - 0.2,
			High:   px + 0.5,
			Low:    px - 0.6,
			Close:  px,
			Volume: 1e6 + 1000*float64(i%7),
		})
	}
	return bars
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func post(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthDegradedWhenStoreUnreachable(t *testing.T) {
	env := newAPIEnv(t)
	env.h.SetHealth(func(context.Context) error { return errors.New("ping: connection refused") })

	rec := get(env.e, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, "degraded", body["status"])
	// the probe response never leaks the underlying error
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestListIndicators(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Rows  []models.IndicatorMetadata `json:"rows"`
		Total int64                      `json:"total"`
	}
	resp := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, len(env.reg.List()), len(list.Rows))
	assert.Equal(t, int64(len(list.Rows)), list.Total)
}

func TestListIndicatorsCategoryFilter(t *testing.T) {
	env := newAPIEnv(t)

	want := 0
	for _, m := range env.reg.List() {
		if m.Category == "labor" {
			want++
		}
	}
	require.Greater(t, want, 0)

	rec := get(env.e, "/api/indicators?category=labor")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Rows []models.IndicatorMetadata `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &list))
	assert.Equal(t, want, len(list.Rows))
	for _, m := range list.Rows {
		assert.Equal(t, "labor", m.Category)
	}
}

func TestListIndicatorsRejectsUnknownCategory(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators?category=astrology")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var verrs []struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "ERR_ONEOF", verrs[0].Code)
}

func TestScorecardEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	// lowercase path params normalize to the canonical id
	rec := get(env.e, "/api/indicators/unrate/scorecard")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.Status)

	var card models.IndicatorScorecard
	require.NoError(t, json.Unmarshal(resp.Data, &card))
	assert.Equal(t, "UNRATE", card.SeriesID)
	require.NotNil(t, card.Confidence)
	require.NotNil(t, card.Insight)
	require.NotEmpty(t, card.ZScores)
}

func TestScorecardUnknownSeriesIs404(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators/NOPE/scorecard")
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	var appErrs []struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &appErrs))
	require.Len(t, appErrs, 1)
	assert.Equal(t, "ERR_NOT_FOUND", appErrs[0].Code)
}

func TestScorecardWindowValidation(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators/UNRATE/scorecard?window=2")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var verrs []struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "ERR_GTE", verrs[0].Code)
	assert.Equal(t, "Window", verrs[0].Field)
}

func TestScorecardReaderErrorIs500(t *testing.T) {
	env := newAPIEnv(t)
	env.reader.err = errors.New("clickhouse down")

	rec := get(env.e, "/api/indicators/UNRATE/scorecard")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	// internal failures stay opaque
	assert.NotContains(t, string(resp.Data), "clickhouse")
}

func TestScorecardServedFromCache(t *testing.T) {
	env := newAPIEnv(t)
	mc := cache.NewMemory()
	defer mc.Close()
	env.h.SetCache(mc)

	key := usecase.ScorecardCacheKey("UNRATE", 24)
	require.NoError(t, mc.Set(context.Background(), key, []byte(`{"seriesId":"UNRATE","cached":true}`), time.Minute))

	rec := get(env.e, "/api/indicators/UNRATE/scorecard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cached":true`)
	assert.Equal(t, 0, env.reader.callCount())
}

func TestScorecardFillsCacheOnMiss(t *testing.T) {
	env := newAPIEnv(t)
	mc := cache.NewMemory()
	defer mc.Close()
	env.h.SetCache(mc)

	rec := get(env.e, "/api/indicators/UNRATE/scorecard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, env.reader.callCount())

	// second hit comes from the cache
	rec = get(env.e, "/api/indicators/UNRATE/scorecard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.reader.callCount())
}

func TestConfidenceEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators/UNRATE/confidence")
	require.Equal(t, http.StatusOK, rec.Code)

	var conf models.ConfidenceScore
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &conf))
	assert.Greater(t, conf.Score, 0.0)
}

func TestContextEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators/UNRATE/context")
	require.Equal(t, http.StatusOK, rec.Code)

	var hc models.HistoricalContext
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &hc))
	assert.GreaterOrEqual(t, hc.Percentile, 0.0)
	assert.LessOrEqual(t, hc.Percentile, 100.0)
}

func TestHistoryEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators/UNRATE/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, env.reader.gotLimit)

	var res usecase.GetHistoryResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "UNRATE", res.SeriesID)
	assert.Equal(t, len(res.Rows), res.Count)
}

func TestHistoryRejectsBadSince(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/indicators/UNRATE/history?since=notadate")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var verrs []struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "ERR_DATETIME", verrs[0].Code)
}

func TestRefreshEnqueuesJob(t *testing.T) {
	env := newAPIEnv(t)
	q := &stubQueue{}
	env.h.SetQueue(q)

	rec := post(env.e, "/api/indicators/unrate/refresh")
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Contains(t, string(resp.Data), `"state":"queued"`)

	assert.Equal(t, usecase.RefreshJobType, q.gotType)
	payload, ok := q.gotPayload.(usecase.RefreshPayload)
	require.True(t, ok)
	assert.Equal(t, "UNRATE", payload.SeriesID)
}

func TestRefreshUnknownSeriesIs404(t *testing.T) {
	env := newAPIEnv(t)
	env.h.SetQueue(&stubQueue{})

	rec := post(env.e, "/api/indicators/NOPE/refresh")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshWithoutQueueIs500(t *testing.T) {
	env := newAPIEnv(t)

	rec := post(env.e, "/api/indicators/UNRATE/refresh")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRefreshQueueErrorIsOpaque500(t *testing.T) {
	env := newAPIEnv(t)
	env.h.SetQueue(&stubQueue{err: errors.New("redis down")})

	rec := post(env.e, "/api/indicators/UNRATE/refresh")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestDashboardEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var dash usecase.Dashboard
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &dash))
	assert.Equal(t, len(env.reg.List()), len(dash.Indicators))
}

func TestDashboardCategoryFilter(t *testing.T) {
	env := newAPIEnv(t)

	want := 0
	for _, m := range env.reg.List() {
		if m.Category == "inflation" {
			want++
		}
	}
	require.Greater(t, want, 0)

	rec := get(env.e, "/api/dashboard?category=inflation")
	require.Equal(t, http.StatusOK, rec.Code)

	var dash usecase.Dashboard
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &dash))
	require.Equal(t, want, len(dash.Indicators))
	for _, card := range dash.Indicators {
		meta, ok := env.reg.Get(card.SeriesID)
		require.True(t, ok)
		assert.Equal(t, "inflation", meta.Category)
	}
}

func TestMarketSignalEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/market/spy/signal")
	require.Equal(t, http.StatusOK, rec.Code)

	// symbol normalized, default depth applied
	assert.Equal(t, "SPY", env.bars.gotSymbol)
	assert.Equal(t, 260, env.bars.gotN)

	var res usecase.MarketSignalResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "SPY", res.Symbol)
	assert.Equal(t, 260, res.Bars)
	assert.NotEmpty(t, res.Composite.Signal)
}

func TestMarketSignalDepthValidation(t *testing.T) {
	env := newAPIEnv(t)

	rec := get(env.e, "/api/market/SPY/signal?n=10")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketSignalBarReaderErrorIs500(t *testing.T) {
	env := newAPIEnv(t)
	env.bars.err = errors.New("clickhouse down")

	rec := get(env.e, "/api/market/SPY/signal")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "clickhouse")
}

func TestScorecardRateLimited(t *testing.T) {
	env := newAPIEnv(t)

	codes := make(map[int]int)
	for i := 0; i < 8; i++ {
		rec := get(env.e, "/api/indicators/UNRATE/scorecard")
		codes[rec.Code]++
	}
	// burst capacity is 5, so the tail of the burst gets throttled
	assert.Greater(t, codes[http.StatusOK], 0)
	assert.Greater(t, codes[http.StatusTooManyRequests], 0)
}
