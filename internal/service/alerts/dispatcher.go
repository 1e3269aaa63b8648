package alerts

import (
	"context"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	xhttp "MacroPulse/pkg/http"
	applogger "MacroPulse/pkg/logger"
)

// Dispatcher fans alert events out to kafka and an optional webhook.
// Dispatch never blocks scoring: failures are logged and swallowed.
type Dispatcher struct {
	pub        drepo.AlertPublisher
	httpc      *xhttp.Client
	webhookURL string
	l          *applogger.Logger
	timeout    time.Duration
}

func NewDispatcher(pub drepo.AlertPublisher, httpc *xhttp.Client, webhookURL string, l *applogger.Logger) *Dispatcher {
	return &Dispatcher{
		pub:        pub,
		httpc:      httpc,
		webhookURL: webhookURL,
		l:          l,
		timeout:    10 * time.Second,
	}
}

// FromInsight builds an alert event when the insight is at warning level or
// above. Returns false for watch/normal levels.
func FromInsight(meta models.IndicatorMetadata, ins models.InsightClassification, levelZ float64, now time.Time) (models.AlertEvent, bool) {
	switch ins.AlertLevel {
	case models.AlertCritical, models.AlertWarning:
	default:
		return models.AlertEvent{}, false
	}
	return models.AlertEvent{
		SeriesID:    meta.SeriesID,
		DisplayName: meta.DisplayName,
		Level:       ins.AlertLevel,
		Signal:      ins.OverallSignal,
		Reasoning:   ins.Reasoning,
		LevelZ:      levelZ,
		Timestamp:   now,
	}, true
}

// Dispatch publishes the event on every configured channel, detached from
// the caller's context so scoring latency never includes delivery.
func (d *Dispatcher) Dispatch(a models.AlertEvent) {
	go d.deliver(a)
}

func (d *Dispatcher) deliver(a models.AlertEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if d.l != nil {
		d.l.Info("alert dispatched",
			applogger.String("series", a.SeriesID),
			applogger.String("level", string(a.Level)),
			applogger.Float64("level_z", a.LevelZ),
		)
	}

	if d.pub != nil {
		if err := d.pub.PublishAlert(ctx, a); err != nil && d.l != nil {
			d.l.Error("alert publish failed",
				applogger.String("series", a.SeriesID),
				applogger.String("level", string(a.Level)),
				applogger.Error(err),
			)
		}
	}

	if d.httpc != nil && d.webhookURL != "" {
		if err := d.postWebhook(ctx, a, 3); err != nil && d.l != nil {
			d.l.Error("alert webhook failed",
				applogger.String("series", a.SeriesID),
				applogger.String("level", string(a.Level)),
				applogger.Error(err),
			)
		}
	}
}

// postWebhook retries transient webhook failures with a short linear backoff.
func (d *Dispatcher) postWebhook(ctx context.Context, a models.AlertEvent, attempts int) error {
	var err error
	for i := 1; i <= attempts; i++ {
		err = d.httpc.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    d.webhookURL,
			Headers: map[string]string{
				"Content-Type": "application/json",
			},
			Body: a,
		}, nil)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
