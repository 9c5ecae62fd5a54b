//go:build wireinject
// +build wireinject

package di

import (
	"SigForge/pkg/config"
	"SigForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCache,
		ProvideQueue,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Stores and engines
		ProvideMarketDataSource,
		ProvideFeatureStore,
		ProvideSignalStore,
		ProvideFeatureEngine,
		ProvideSignalEngine,
		ProvideQualityScanner,

		// Use cases
		ProvideRunEventPublisher,
		ProvideFeaturePipeline,
		ProvideSignalPipeline,
		ProvidePipelineRunner,
		ProvideBackfill,
		ProvidePipelineJob,
		ProvideJobsHandler,
		ProvideTableQueries,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
