package di

import (
	"context"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/handler/api"
	mid "MacroPulse/internal/middleware"
	"MacroPulse/internal/registry"
	internalrepo "MacroPulse/internal/repository"
	"MacroPulse/internal/service/alerts"
	"MacroPulse/internal/service/marketfeed"
	"MacroPulse/internal/services/derived"
	"MacroPulse/internal/services/scoring"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	pkgch "MacroPulse/pkg/clickhouse"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	pkgkafka "MacroPulse/pkg/kafka"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/metrics"
	"MacroPulse/pkg/queue"
	"MacroPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema. ReplacingMergeTree lets revisions and re-folded
	// bars overwrite by key; readers query with FINAL.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".economic_observations (" +
			"series_id String, period_date Date, release_date DateTime, value Float64, source String, created_at DateTime DEFAULT now()" +
			") ENGINE=ReplacingMergeTree(created_at) ORDER BY (series_id, period_date)",
		"CREATE TABLE IF NOT EXISTS " + db + ".market_bars (" +
			"symbol String, bar_date Date, open Float64, high Float64, low Float64, close Float64, volume Float64, updated_at DateTime DEFAULT now()" +
			") ENGINE=ReplacingMergeTree(updated_at) ORDER BY (symbol, bar_date)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerAutoOffsetReset(cfg.Kafka.Consumer.AutoOffsetReset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewTimingHook(l, time.Second))
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry builds the indicator catalog with config overrides applied.
func ProvideRegistry(cfg *config.Config) (*registry.Registry, error) {
	extra := make([]models.IndicatorMetadata, 0, len(cfg.Indicators))
	for _, ic := range cfg.Indicators {
		extra = append(extra, models.IndicatorMetadata{
			SeriesID:       ic.SeriesID,
			DisplayName:    ic.DisplayName,
			Type:           models.IndicatorType(ic.Type),
			Category:       ic.Category,
			Family:         models.Family(ic.Family),
			Unit:           models.Unit(ic.Unit),
			Frequency:      models.Frequency(ic.Frequency),
			Directionality: models.Directionality(ic.Directionality),
			Forecast:       ic.Forecast,
			HasForecast:    ic.HasForecast,
			PriorOffset:    ic.PriorOffset,
		})
	}
	reg, err := registry.New(extra...)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return reg, nil
}

// ProvideSeriesStore creates the ClickHouse read path for observations and bars.
func ProvideSeriesStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHSeriesStore {
	return internalrepo.NewCHSeriesStore(l, chClient,
		cfg.ClickHouse.Database+".economic_observations",
		cfg.ClickHouse.Database+".market_bars",
	)
}

// ProvideObservationStore creates ClickHouse observation storage.
func ProvideObservationStore(chClient *pkgch.Client, cfg *config.Config) repository.ObservationStore {
	return internalrepo.NewClickHouseObservationStore(chClient.DB(), cfg.ClickHouse.Database+".economic_observations")
}

// ProvideBarStore creates ClickHouse daily bar storage.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config) repository.BarStore {
	return internalrepo.NewClickHouseBarStore(chClient.DB(), cfg.ClickHouse.Database+".market_bars")
}

// ProvideQuotePublisher creates the Kafka quote publisher.
func ProvideQuotePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.QuotePublisher {
	return internalrepo.NewKafkaQuotePublisher(producer, cfg.Kafka.Topics.Quotes)
}

// ProvideAlertPublisher creates the Kafka alert publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topics.Alerts)
}

// ProvideQuoteStream creates the market feed WebSocket stream, or nil when
// the feed is disabled.
func ProvideQuoteStream(cfg *config.Config, l *applogger.Logger) repository.QuoteStream {
	if !cfg.MarketFeed.Enabled {
		return nil
	}
	return marketfeed.New(
		l,
		cfg.MarketFeed.APIKey,
		cfg.MarketFeed.WebSocketURL,
		cfg.MarketFeed.Symbols,
		cfg.MarketFeed.ReconnectDelay,
		cfg.MarketFeed.PingInterval,
	)
}

// ProvideNormalizer creates the z-score normalizer.
func ProvideNormalizer() domsvc.Normalizer {
	return scoring.NewNormalizer()
}

// ProvideCompositeScorer creates the composite scorer from config weights,
// falling back to the production defaults.
func ProvideCompositeScorer(cfg *config.Config) (domsvc.CompositeScorer, error) {
	cc := scoring.DefaultCompositeConfig()
	if len(cfg.Scoring.Composite.Weights) > 0 {
		cc.Weights = cfg.Scoring.Composite.Weights
	}
	if cfg.Scoring.Composite.BuyThreshold != 0 {
		cc.BuyThreshold = cfg.Scoring.Composite.BuyThreshold
	}
	if cfg.Scoring.Composite.SellThreshold != 0 {
		cc.SellThreshold = cfg.Scoring.Composite.SellThreshold
	}
	if err := cc.Validate(); err != nil {
		return nil, fmt.Errorf("composite config: %w", err)
	}
	return scoring.NewCompositeScorer(cc), nil
}

// ProvideConfidenceScorer creates the data confidence scorer.
func ProvideConfidenceScorer() domsvc.ConfidenceScorer {
	return scoring.NewConfidenceScorer()
}

// ProvideContextClassifier creates the historical context classifier.
func ProvideContextClassifier() domsvc.ContextClassifier {
	return scoring.NewContextClassifier()
}

// ProvideInsightClassifier creates the economic insight classifier.
func ProvideInsightClassifier() domsvc.InsightClassifier {
	return scoring.NewInsightClassifier()
}

// ProvideDerivedCalculator creates the derived metrics calculator.
func ProvideDerivedCalculator() domsvc.DerivedCalculator {
	return derived.NewCalculator()
}

// ProvideRedisCache creates the shared redis cache, or nil when disabled.
// The pool must stay larger than the refresh worker count because each
// worker parks a blocking pop on it.
func ProvideRedisCache(cfg *config.Config) (*cache.Redis, error) {
	if !cfg.Scoring.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedis(
		cache.WithRedisAddr(cfg.Scoring.Redis.Addr),
		cache.WithRedisAuth(cfg.Scoring.Redis.Password, cfg.Scoring.Redis.DB),
		cache.WithRedisPool(10+cfg.Scoring.Refresh.Workers, 5, 30*time.Second),
		cache.WithRedisPrefix("macropulse:"+cfg.Environment),
		cache.WithRedisDefaultTTL(cfg.Scoring.CacheTTL.Scorecard),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideResponseCache layers an in-process cache in front of redis when
// redis is configured; otherwise the in-process cache serves alone. The
// short local TTL bounds how long one instance keeps serving a scorecard
// another instance already invalidated.
func ProvideResponseCache(rc *cache.Redis) cache.Service {
	if rc == nil {
		return cache.NewMemory(
			cache.WithMemoryMaxEntries(2000),
			cache.WithMemorySweep(time.Minute),
			cache.WithMemoryDefaultTTL(30*time.Minute),
		)
	}
	return cache.NewLayered(rc,
		cache.WithLayeredMemTTL(10*time.Second),
		cache.WithLayeredMemEntries(500),
	)
}

// ProvideAlertDispatcher creates the alert fan-out, or nil when alerting is
// disabled.
func ProvideAlertDispatcher(pub repository.AlertPublisher, cfg *config.Config, l *applogger.Logger) *alerts.Dispatcher {
	if !cfg.Alerts.Enabled {
		return nil
	}
	httpc := xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	return alerts.NewDispatcher(pub, httpc, cfg.Alerts.WebhookURL, l)
}

// ProvideScorecardUseCase assembles the per-indicator scoring pipeline.
func ProvideScorecardUseCase(
	reg *registry.Registry,
	store *internalrepo.CHSeriesStore,
	norm domsvc.Normalizer,
	conf domsvc.ConfidenceScorer,
	cls domsvc.ContextClassifier,
	insight domsvc.InsightClassifier,
	calc domsvc.DerivedCalculator,
	dispatcher *alerts.Dispatcher,
	cfg *config.Config,
) *usecase.ScorecardUseCase {
	uc := usecase.NewScorecardUseCase(reg, store, norm, conf, cls, insight, calc)
	if dispatcher != nil {
		uc.SetAlerts(dispatcher)
	}
	uc.SetDefaultWindow(cfg.Scoring.HistoryWindow)
	return uc
}

// ProvideDashboardUseCase creates the dashboard orchestrator.
func ProvideDashboardUseCase(reg *registry.Registry, cards *usecase.ScorecardUseCase, cfg *config.Config) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(reg, cards, cfg.Scoring.DashboardParallelism)
}

// ProvideMarketSignalUseCase creates the bars-to-composite pipeline.
func ProvideMarketSignalUseCase(store *internalrepo.CHSeriesStore, composite domsvc.CompositeScorer, cfg *config.Config) *usecase.MarketSignalUseCase {
	uc := usecase.NewMarketSignalUseCase(store, composite)
	uc.SetDefaultBars(cfg.Scoring.MarketBars)
	return uc
}

// ProvideHistoryUseCase creates the raw observation window reader.
func ProvideHistoryUseCase(reg *registry.Registry, store *internalrepo.CHSeriesStore) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(reg, store)
}

// ProvideBarFolder creates the quote-to-daily-bar folder.
func ProvideBarFolder(store repository.BarStore, m repository.Metrics, cfg *config.Config) *usecase.BarFolder {
	return usecase.NewBarFolder(store, m, cfg.Backend.BatchTimeout)
}

// ProvideQuoteProcessor routes validated quotes to the configured backend.
func ProvideQuoteProcessor(
	pub repository.QuotePublisher,
	folder *usecase.BarFolder,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.QuoteProcessor {
	return usecase.NewQuoteProcessor(pub, folder, m, cfg.Backend.Type)
}

// ProvideQuoteCollector creates the quote collector, or nil when the market
// feed is disabled.
func ProvideQuoteCollector(
	stream repository.QuoteStream,
	processor *usecase.QuoteProcessor,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.QuoteCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
		mid.WithReplayBatch(cfg.Backend.BatchSize),
		mid.WithLogger(l),
	)
	return usecase.NewQuoteCollector(stream, processor, m, pipe)
}

// ProvideRefreshQueue creates the redis-backed refresh queue with the
// scorecard refresh job registered, or nil when redis is disabled.
func ProvideRefreshQueue(
	cfg *config.Config,
	l *applogger.Logger,
	rc *cache.Redis,
	cards *usecase.ScorecardUseCase,
	respCache cache.Service,
) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	ttl := cfg.Scoring.CacheTTL.Scorecard
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	job := usecase.NewScorecardRefreshJob(cards, respCache, ttl, l)

	workers := cfg.Scoring.Refresh.Workers
	if workers <= 0 {
		workers = 2
	}
	var opts []queue.RedisQueueOption
	if cfg.Scoring.Refresh.Queue != "" {
		opts = append(opts, queue.WithKeyPrefix(cfg.Scoring.Refresh.Queue))
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), opts...)
	q.RegisterJob(job)
	return q
}

// ProvideKafkaObservationsHandler registers the handler for the
// observations topic.
func ProvideKafkaObservationsHandler(
	store repository.ObservationStore,
	m repository.Metrics,
	q *queue.RedisQueue,
	cfg *config.Config,
) *usecase.KafkaObservationsHandler {
	var jobs queue.QueueService
	if q != nil {
		jobs = q
	}
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topics.Observations, store, m, jobs)
}

// ProvideKafkaQuotesHandler registers the handler folding quotes into bars.
func ProvideKafkaQuotesHandler(folder *usecase.BarFolder, m repository.Metrics, cfg *config.Config) *usecase.KafkaQuotesHandler {
	return usecase.NewKafkaQuotesHandler(cfg.Kafka.Topics.Quotes, folder, m)
}

// ProvideScoresHandler creates the HTTP API handler.
func ProvideScoresHandler(
	l *applogger.Logger,
	reg *registry.Registry,
	cards *usecase.ScorecardUseCase,
	dash *usecase.DashboardUseCase,
	market *usecase.MarketSignalUseCase,
	hist *usecase.HistoryUseCase,
	respCache cache.Service,
	q *queue.RedisQueue,
	store repository.ObservationStore,
	cfg *config.Config,
) *api.ScoresHandler {
	h := api.NewScoresHandler(l, reg, cards, dash, market, hist)
	h.SetCache(respCache)
	if q != nil {
		h.SetQueue(q)
	}
	h.SetHealth(store.Health)
	h.SetCacheTTLs(cfg.Scoring.CacheTTL.Scorecard, cfg.Scoring.CacheTTL.Dashboard, cfg.Scoring.CacheTTL.Market)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.QuoteCollector,
	folder *usecase.BarFolder,
	consumer *pkgkafka.Consumer,
	oh *usecase.KafkaObservationsHandler,
	qh *usecase.KafkaQuotesHandler,
	q *queue.RedisQueue,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	handler *api.ScoresHandler,
	respCache cache.Service,
) *server.App {
	app := server.New(cfg, l, collector, folder, consumer, oh, qh, q, producer, chClient)
	app.SetHTTPHandler(handler)
	app.SetResponseCache(respCache)
	return app
}
