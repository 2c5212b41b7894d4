//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"PriceOpt/pkg/config"
	"PriceOpt/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideSessionStore,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideDatasetRepository,
		ProvideChatRepository,
		ProvideAnalysisStore,
		ProvideRecommendationPublisher,
		ProvideProgressBroker,

		// Use cases
		ProvidePricing,
		ProvideChat,
		ProvideDatasets,
		ProvideEnrichment,
		ProvideQueue,
		ProvideScheduler,
		ProvideObservationProcessor,
		ProvidePipeline,
		ProvideKafkaConsumer,

		// Transport
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
