//go:build wireinject
// +build wireinject

package di

import (
	"EpiCast/pkg/config"
	"EpiCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Storage
		ProvideSeriesStore,
		ProvideForecastStore,
		ProvideSessionStore,
		ProvideModelMetaStore,
		ProvideRegistry,

		// Forecasting services
		ProvideForecastingConfig,
		ProvideTrainer,
		ProvideForecaster,

		// Use cases
		ProvideRecordPublisher,
		ProvideRecordHandlers,
		ProvideRecordProcessor,
		ProvidePipeline,
		ProvideJobQueue,
		ProvideScheduler,

		// Application server
		ProvideOpsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
