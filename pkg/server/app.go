package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalrepo "MacroPulse/internal/repository"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	pkgch "MacroPulse/pkg/clickhouse"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	pkgkafka "MacroPulse/pkg/kafka"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle: the market feed
// collector, the bar folder, kafka consumers, refresh queue workers, and
// the HTTP API.
type App struct {
	cfg           *config.Config
	l             *applogger.Logger
	collector     *usecase.QuoteCollector
	folder        *usecase.BarFolder
	consumer      *pkgkafka.Consumer
	obsHandler    pkgkafka.MessageHandler
	quotesHandler pkgkafka.MessageHandler
	queue         *queue.RedisQueue
	producer      *pkgkafka.Producer
	chClient      *pkgch.Client
	respCache     cache.Service
	httpServer    *xhttp.Server
	httpHandler   xhttp.Handler
}

// New creates a new App instance with all dependencies. The collector and
// queue may be nil when their subsystems are disabled by config.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.QuoteCollector,
	folder *usecase.BarFolder,
	consumer *pkgkafka.Consumer,
	obsHandler pkgkafka.MessageHandler,
	quotesHandler pkgkafka.MessageHandler,
	q *queue.RedisQueue,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:           cfg,
		l:             l,
		collector:     collector,
		folder:        folder,
		consumer:      consumer,
		obsHandler:    obsHandler,
		quotesHandler: quotesHandler,
		queue:         q,
		producer:      producer,
		chClient:      chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetResponseCache hands the app the response cache so shutdown can close it.
func (a *App) SetResponseCache(c cache.Service) { a.respCache = c }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l

	// Route aggregated error logs to kafka when enabled
	if a.cfg.Logging.Collector.Enabled && a.producer != nil && a.cfg.Kafka.Topics.Logs != "" {
		interval := a.cfg.Logging.Collector.TimeInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		threshold := a.cfg.Logging.Collector.CountThreshold
		if threshold <= 0 {
			threshold = 100
		}
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   interval,
			CountThreshold: threshold,
			Topic:          a.cfg.Kafka.Topics.Logs,
			Publisher:      internalrepo.NewKafkaLogPublisher(a.producer),
		})
		l.Info("log collector enabled", applogger.String("topic", a.cfg.Kafka.Topics.Logs))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
		xhttp.WithServerLogger(l),
	)

	// Bar folder flushes in-progress daily bars on an interval
	if a.folder != nil {
		a.folder.Start(ctx)
		l.Info("bar folder started")
	}

	// Market feed collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("quote collector started", applogger.Strings("symbols", a.cfg.MarketFeed.Symbols))
	}

	// Kafka consumers: observations always, quotes only on the kafka backend
	if a.consumer != nil {
		registered := 0
		if a.obsHandler != nil {
			a.consumer.RegisterHandler(a.obsHandler)
			registered++
		}
		if a.quotesHandler != nil && a.cfg.Backend.Type == "kafka" {
			a.consumer.RegisterHandler(a.quotesHandler)
			registered++
		}
		if registered > 0 {
			go func() {
				if err := a.consumer.Start(); err != nil {
					l.Error("kafka consumer error", applogger.Error(err))
				}
			}()
			l.Info("kafka consumer started",
				applogger.String("observations_topic", a.cfg.Kafka.Topics.Observations),
				applogger.Int("handlers", registered),
			)
		}
	}

	// Refresh queue workers
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("refresh queue start error", applogger.Error(err))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services in reverse order of startup.
func (a *App) shutdown(ctx context.Context) error {
	l := a.l

	// Stop HTTP first so no new scoring work arrives
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop feed collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Stop consumer before the folder so no handler folds into a stopped folder
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Final bar flush
	if a.folder != nil {
		if err := a.folder.Stop(shutdownCtx); err != nil {
			l.Warn("bar folder stop error", applogger.Error(err))
		}
	}

	// Stop refresh workers
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("refresh queue stop error", applogger.Error(err))
		}
	}

	// Close the cache after the queue: they share the redis pool
	if closer, ok := a.respCache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}

	// Flush aggregated logs before the producer closes: the final batch
	// ships through it
	l.RemoveCollector()

	// Close infrastructure clients
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
