package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	pkgkafka "MacroPulse/pkg/kafka"
	"MacroPulse/pkg/queue"
	"MacroPulse/pkg/util"
)

// KafkaObservationsHandler consumes observation events and writes to storage.
// Each stored observation also enqueues a scorecard refresh so the cache is
// re-warmed shortly after new data lands.
type KafkaObservationsHandler struct {
	topic   string
	store   domrepo.ObservationStore
	metrics domrepo.Metrics
	jobs    queue.QueueService
}

func NewKafkaObservationsHandler(topic string, store domrepo.ObservationStore, metrics domrepo.Metrics, jobs queue.QueueService) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, store: store, metrics: metrics, jobs: jobs}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.ObservationEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	ev.SeriesID = util.NormalizeID(ev.SeriesID)
	if ev.SeriesID == "" || ev.PeriodDate.IsZero() {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("observation missing series_id or period_date")
	}
	if math.IsNaN(ev.Value) || math.IsInf(ev.Value, 0) {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("observation %s: non-finite value", ev.SeriesID)
	}

	// E2E latency from release to ingest (approx)
	if !ev.ReleaseDate.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ev.ReleaseDate).Seconds())
	}

	ob := ev.Observation()
	start := time.Now()
	err := h.store.Store(ctx, &ob)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservation("fred", ev.SeriesID)
	h.metrics.RecordLastValue(ev.SeriesID, ev.Value)

	if h.jobs != nil {
		if err := h.jobs.PublishMessage(ctx, RefreshJobType, RefreshPayload{SeriesID: ev.SeriesID}); err != nil {
			// best-effort, next request recomputes
			h.metrics.RecordError("refresh_enqueue")
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
