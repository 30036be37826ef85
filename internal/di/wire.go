//go:build wireinject
// +build wireinject

package di

import (
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideSettings,
		ProvideGapLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories and adapters
		ProvideHistoryStore,
		ProvideIndicatorProvider,
		ProvideAssessor,
		ProvidePriceStream,
		ProvideTelegramClient,
		ProvideTelegramQueue,

		// Use cases
		ProvideScorer,
		ProvideAssembler,
		ProvideQualityGate,
		ProvideEventRouter,
		ProvideEventPipeline,
		ProvideWorkflow,
		ProvideGenerator,
		ProvidePriceCollector,
		ProvideKafkaEventsHandler,

		// Handlers
		ProvideApprovalsHandler,
		ProvideTelegramPoller,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
