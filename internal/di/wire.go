//go:build wireinject
// +build wireinject

package di

import (
	"MacroPulse/pkg/config"
	"MacroPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideResponseCache,

		// Indicator catalog
		ProvideRegistry,

		// Repositories
		ProvideSeriesStore,
		ProvideObservationStore,
		ProvideBarStore,
		ProvideQuotePublisher,
		ProvideAlertPublisher,
		ProvideQuoteStream,

		// Scoring services
		ProvideNormalizer,
		ProvideCompositeScorer,
		ProvideConfidenceScorer,
		ProvideContextClassifier,
		ProvideInsightClassifier,
		ProvideDerivedCalculator,
		ProvideAlertDispatcher,

		// Use cases
		ProvideScorecardUseCase,
		ProvideDashboardUseCase,
		ProvideMarketSignalUseCase,
		ProvideHistoryUseCase,
		ProvideBarFolder,
		ProvideQuoteProcessor,
		ProvideQuoteCollector,
		ProvideRefreshQueue,
		ProvideKafkaObservationsHandler,
		ProvideKafkaQuotesHandler,

		// HTTP + application server
		ProvideScoresHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
