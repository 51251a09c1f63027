//go:build wireinject
// +build wireinject

package di

import (
	"OppRadar/pkg/config"
	"OppRadar/pkg/server"

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
		ProvideKafkaProducer,

		// Repositories
		ProvideOpportunityStore,
		ProvideOpportunityPublisher,
		ProvideMarketStream,

		// Pipeline and analysis
		ProvideBufferStore,
		ProvideTickPipeline,
		ProvideAnomalyDetector,
		ProvideScorer,
		ProvideAnalyzer,
		ProvidePool,
		ProvideScheduler,
		ProvideMonitor,

		// Read side
		ProvideQueryService,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
