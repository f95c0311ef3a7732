//go:build wireinject
// +build wireinject

package di

import (
	"NightScan/pkg/config"
	"NightScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp builds the application graph from configuration.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideCollector,
		ProvideLogger,
		ProvideCache,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideCandleStore,
		ProvideResultSink,
		ProvideNotifier,
		ProvideModelStore,
		ProvideRunStateStore,
		ProvideReportWriter,
		ProvideProviderChain,
		ProvideScanner,
		ProvideRegimeEngine,
		ProvideSentimentAnalyzer,
		ProvideForecastService,
		ProvideSignalProviders,
		ProvideEnsemble,
		ProvideEventRiskGuard,
		ProvideScorer,
		ProvideTrainer,
		ProvidePipeline,
		ProvideStatusHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
