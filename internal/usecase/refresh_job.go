package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MacroPulse/pkg/cache"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/queue"
)

// RefreshJobType is the queue message type for scorecard refreshes.
const RefreshJobType = "scorecard_refresh"

// DashboardCacheKey caches the whole-board response.
const DashboardCacheKey = "dashboard"

type RefreshPayload struct {
	SeriesID string `json:"series_id"`
}

// ScorecardCacheKey is shared by the API layer and the refresh worker so a
// warmed entry is exactly the one the next request reads.
func ScorecardCacheKey(seriesID string, window int) string {
	return fmt.Sprintf("scorecard:%s:%d", seriesID, window)
}

// MarketSignalCacheKey keys the composite signal response per symbol/depth.
func MarketSignalCacheKey(symbol string, n int) string {
	return fmt.Sprintf("marketsignal:%s:%d", symbol, n)
}

func refreshLockKey(seriesID string) string {
	return "refresh:lock:" + seriesID
}

// ScorecardRefreshJob recomputes one scorecard after new observations land,
// drops the stale cached windows for that series, and warms the response
// cache with the default window.
type ScorecardRefreshJob struct {
	cards *ScorecardUseCase
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewScorecardRefreshJob(cards *ScorecardUseCase, c cache.Service, ttl time.Duration, l *applogger.Logger) *ScorecardRefreshJob {
	return &ScorecardRefreshJob{cards: cards, cache: c, ttl: ttl, l: l}
}

func (j *ScorecardRefreshJob) Name() string { return "scorecard_refresh_worker" }

func (j *ScorecardRefreshJob) Type() string { return RefreshJobType }

func (j *ScorecardRefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("parse refresh payload: %w", err)
	}

	// A burst of observations for one series enqueues several refreshes;
	// the lock lets the first one do the work and the rest drop out.
	if j.cache != nil {
		ok, lerr := j.cache.TryLock(ctx, refreshLockKey(p.SeriesID), time.Minute)
		if lerr == nil && !ok {
			j.l.Debug("refresh already in flight", applogger.String("series", p.SeriesID))
			return nil
		}
		if lerr == nil {
			defer func() { _ = j.cache.Unlock(ctx, refreshLockKey(p.SeriesID)) }()
		}
	}

	card, err := j.cards.GetScorecard(ctx, GetScorecardParams{SeriesID: p.SeriesID})
	if err != nil {
		if errors.Is(err, ErrUnknownSeries) {
			// untracked series: drop instead of retrying forever
			j.l.Warn("refresh for untracked series", applogger.String("series", p.SeriesID))
			return nil
		}
		return err
	}

	if j.cache != nil {
		// every cached window for the series is stale now, not just the default
		if derr := j.cache.DeleteByPattern(ctx, fmt.Sprintf("scorecard:%s:*", p.SeriesID)); derr != nil {
			j.l.Warn("refresh cache invalidate error", applogger.String("series", p.SeriesID), applogger.Error(derr))
		}
		if b, merr := json.Marshal(card); merr == nil {
			_ = j.cache.Set(ctx, ScorecardCacheKey(p.SeriesID, j.cards.DefaultWindow()), b, j.ttl)
		}
	}
	j.l.Info("scorecard refreshed", applogger.String("series", p.SeriesID))
	return nil
}

var _ queue.Job = (*ScorecardRefreshJob)(nil)
