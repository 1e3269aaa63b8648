package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/service/metrics"
	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	xhttp "MacroPulse/pkg/http"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/queue"
	"MacroPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScoresHandler serves the scoring API: indicator scorecards, the dashboard,
// market signals, and raw history. Scorecard and dashboard responses are
// cached; scoring endpoints are token-bucket rate limited per client.
type ScoresHandler struct {
	logger *applogger.Logger
	reg    *registry.Registry
	cards  *usecase.ScorecardUseCase
	dash   *usecase.DashboardUseCase
	market *usecase.MarketSignalUseCase
	hist   *usecase.HistoryUseCase
	jobs   queue.QueueService
	cache  cache.Service
	rl     *ratelimit.Limiter
	health func(context.Context) error

	scorecardTTL time.Duration
	dashboardTTL time.Duration
	marketTTL    time.Duration
}

func NewScoresHandler(
	logger *applogger.Logger,
	reg *registry.Registry,
	cards *usecase.ScorecardUseCase,
	dash *usecase.DashboardUseCase,
	market *usecase.MarketSignalUseCase,
	hist *usecase.HistoryUseCase,
) *ScoresHandler {
	metrics.Register()
	return &ScoresHandler{
		logger:       logger,
		reg:          reg,
		cards:        cards,
		dash:         dash,
		market:       market,
		hist:         hist,
		rl:           ratelimit.New(),
		scorecardTTL: 30 * time.Minute,
		dashboardTTL: 30 * time.Minute,
		marketTTL:    5 * time.Minute,
	}
}

func (h *ScoresHandler) SetCache(c cache.Service) { h.cache = c }

// SetQueue wires the refresh queue; without it POST refresh returns 500.
func (h *ScoresHandler) SetQueue(q queue.QueueService) { h.jobs = q }

// SetHealth wires the storage ping behind GET /health.
func (h *ScoresHandler) SetHealth(fn func(context.Context) error) { h.health = fn }

func (h *ScoresHandler) SetCacheTTLs(scorecard, dashboard, market time.Duration) {
	if scorecard > 0 {
		h.scorecardTTL = scorecard
	}
	if dashboard > 0 {
		h.dashboardTTL = dashboard
	}
	if market > 0 {
		h.marketTTL = market
	}
}

func (h *ScoresHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Healthz)

	g := e.Group("/api")
	g.GET("/indicators", h.ListIndicators)
	g.GET("/indicators/:series_id/scorecard", h.Scorecard)
	g.GET("/indicators/:series_id/confidence", h.Confidence)
	g.GET("/indicators/:series_id/context", h.Context)
	g.GET("/indicators/:series_id/history", h.History)
	g.POST("/indicators/:series_id/refresh", h.Refresh)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/market/:symbol/signal", h.MarketSignal)
}

var _ xhttp.Handler = (*ScoresHandler)(nil)

// Healthz reports liveness plus storage reachability when a ping is
// wired. Scoring itself is stateless, so storage is the only dependency
// worth probing.
func (h *ScoresHandler) Healthz(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", applogger.Error(err))
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ScoresHandler) ListIndicators(c echo.Context) error {
	req := &models.ListIndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	list := h.reg.Filter(req.Category, models.IndicatorType(req.Type))
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *ScoresHandler) Scorecard(c echo.Context) error {
	start := time.Now()
	endpoint := "scorecard"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ScorecardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.SeriesID = util.NormalizeID(req.SeriesID)
	if req.Window <= 0 {
		req.Window = h.cards.DefaultWindow()
	}
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	key := usecase.ScorecardCacheKey(req.SeriesID, req.Window)
	if b, ok := h.fromCache(c.Request().Context(), endpoint, key); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}
	card, err := h.cards.GetScorecard(c.Request().Context(), usecase.GetScorecardParams{
		SeriesID: req.SeriesID,
		Window:   req.Window,
	})
	if err != nil {
		return h.scoreError(c, endpoint, req.SeriesID, err)
	}
	h.toCache(c.Request().Context(), endpoint, key, card, h.scorecardTTL)
	return xhttp.SuccessResponse(c, card)
}

func (h *ScoresHandler) Confidence(c echo.Context) error {
	start := time.Now()
	endpoint := "confidence"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ConfidenceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.SeriesID = util.NormalizeID(req.SeriesID)
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	card, err := h.cards.GetScorecard(c.Request().Context(), usecase.GetScorecardParams{
		SeriesID: req.SeriesID,
		Window:   req.Window,
	})
	if err != nil {
		return h.scoreError(c, endpoint, req.SeriesID, err)
	}
	if card.Confidence == nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("confidence unavailable: %s", card.Errors["confidence"]))
	}
	return xhttp.SuccessResponse(c, card.Confidence)
}

func (h *ScoresHandler) Context(c echo.Context) error {
	start := time.Now()
	endpoint := "context"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ContextRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.SeriesID = util.NormalizeID(req.SeriesID)
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	card, err := h.cards.GetScorecard(c.Request().Context(), usecase.GetScorecardParams{
		SeriesID: req.SeriesID,
		Window:   req.Window,
	})
	if err != nil {
		return h.scoreError(c, endpoint, req.SeriesID, err)
	}
	if card.Context == nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("context unavailable: %s", card.Errors["context"]))
	}
	return xhttp.SuccessResponse(c, card.Context)
}

func (h *ScoresHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.SeriesID = util.NormalizeID(req.SeriesID)
	since := util.ParseTimeDefault(req.Since, time.Time{})
	res, err := h.hist.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		SeriesID: req.SeriesID,
		Since:    since,
		Limit:    req.Limit,
	})
	if err != nil {
		return h.scoreError(c, "history", req.SeriesID, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Refresh enqueues an asynchronous scorecard recomputation for the series.
func (h *ScoresHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.SeriesID = util.NormalizeID(req.SeriesID)
	if _, ok := h.reg.Get(req.SeriesID); !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown series %s", req.SeriesID))
	}
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("refresh queue unavailable"))
	}
	err := h.jobs.PublishMessage(c.Request().Context(), usecase.RefreshJobType, usecase.RefreshPayload{SeriesID: req.SeriesID})
	if err != nil {
		h.logger.Error("refresh enqueue error", applogger.String("series", req.SeriesID), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{
		"seriesId": req.SeriesID,
		"state":    "queued",
	})
}

func (h *ScoresHandler) Dashboard(c echo.Context) error {
	start := time.Now()
	endpoint := "dashboard"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint, 3, 1) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	// only the unfiltered dashboard is cached
	if req.Category == "" {
		if b, ok := h.fromCache(c.Request().Context(), endpoint, usecase.DashboardCacheKey); ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}
	res, err := h.dash.GetDashboard(c.Request().Context())
	if err != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("dashboard usecase error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Category == "" {
		h.toCache(c.Request().Context(), endpoint, usecase.DashboardCacheKey, res, h.dashboardTTL)
		return xhttp.SuccessResponse(c, res)
	}
	filtered := &usecase.Dashboard{Timestamp: res.Timestamp, Errors: res.Errors}
	for _, card := range res.Indicators {
		if meta, ok := h.reg.Get(card.SeriesID); ok && meta.Category == req.Category {
			filtered.Indicators = append(filtered.Indicators, card)
		}
	}
	return xhttp.SuccessResponse(c, filtered)
}

func (h *ScoresHandler) MarketSignal(c echo.Context) error {
	start := time.Now()
	endpoint := "market_signal"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.MarketSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbol = util.NormalizeID(req.Symbol)
	if req.N <= 0 {
		req.N = h.market.DefaultBars()
	}
	if !h.allow(c, endpoint, 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	key := usecase.MarketSignalCacheKey(req.Symbol, req.N)
	if b, ok := h.fromCache(c.Request().Context(), endpoint, key); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}
	res, err := h.market.GetMarketSignal(c.Request().Context(), usecase.GetMarketSignalParams{
		Symbol: req.Symbol,
		N:      req.N,
	})
	if err != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("market signal usecase error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.toCache(c.Request().Context(), endpoint, key, res, h.marketTTL)
	return xhttp.SuccessResponse(c, res)
}

func (h *ScoresHandler) scoreError(c echo.Context, endpoint, seriesID string, err error) error {
	metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
	if errors.Is(err, usecase.ErrUnknownSeries) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown series %s", seriesID))
	}
	h.logger.Error(endpoint+" usecase error", applogger.String("series", seriesID), applogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

func (h *ScoresHandler) allow(c echo.Context, endpoint string, capacity, refillPerSec float64) bool {
	if h.rl == nil {
		return true
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, capacity, refillPerSec) {
		return true
	}
	h.logger.Warn(endpoint+" rate_limited", applogger.String("remote", c.RealIP()))
	return false
}

func (h *ScoresHandler) fromCache(ctx context.Context, endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn(endpoint+" cache_get_error", applogger.Error(err))
		return nil, false
	}
	if ok {
		h.logger.Debug(endpoint+" cache_hit", applogger.String("key", key))
	}
	return b, ok
}

func (h *ScoresHandler) toCache(ctx context.Context, endpoint, key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn(endpoint+" cache_marshal_error", applogger.Error(err))
		return
	}
	if err := h.cache.Set(ctx, key, b, ttl); err != nil {
		h.logger.Warn(endpoint+" cache_set_error", applogger.Error(err))
	}
}
