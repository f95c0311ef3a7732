package di

import (
	"context"
	"fmt"
	"io"
	"time"

	domrepo "NightScan/internal/domain/repository"
	"NightScan/internal/domain/service"
	"NightScan/internal/handler/api"
	internalrepo "NightScan/internal/repository"
	"NightScan/internal/services/forecast"
	"NightScan/internal/services/providers"
	"NightScan/internal/services/regime"
	"NightScan/internal/services/sentiment"
	"NightScan/internal/services/signal"
	"NightScan/internal/usecase"
	"NightScan/pkg/cache"
	pkgch "NightScan/pkg/clickhouse"
	"NightScan/pkg/config"
	xhttp "NightScan/pkg/http"
	pkgkafka "NightScan/pkg/kafka"
	"NightScan/pkg/logger"
	"NightScan/pkg/metrics"
	"NightScan/pkg/server"
)

// ProvideCollector creates the run-scoped warning collector.
func ProvideCollector() *logger.WarningCollector {
	return logger.NewWarningCollector()
}

// ProvideLogger creates the app logger with the collector attached so
// warnings surface in the run summary.
func ProvideLogger(cfg *config.Config, collector *logger.WarningCollector) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AttachCollector(collector)
	return l, nil
}

// ProvideCache selects the cache backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
	case "layered":
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(redisCache), nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

// ProvideMetrics creates the Prometheus recorder, or nil when disabled.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

// ProvideClickHouseClient connects to ClickHouse when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideCandleStore persists fetched candles when ClickHouse is enabled.
func ProvideCandleStore(client *pkgch.Client) (domrepo.CandleStore, error) {
	if client == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewCHCandleStore(ctx, client)
}

// ProvideResultSink records run history when ClickHouse is enabled.
func ProvideResultSink(client *pkgch.Client) (domrepo.ResultSink, error) {
	if client == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewCHResultSink(ctx, client)
}

// ProvideNotifier publishes run events to kafka when enabled, otherwise
// falls back to log notifications.
func ProvideNotifier(cfg *config.Config, log *logger.Logger) (service.Notifier, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NewLogNotifier(log), nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers...),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaNotifier(producer, log), nil
}

// ProvideModelStore opens the file-backed model index.
func ProvideModelStore(cfg *config.Config) (domrepo.ModelStore, error) {
	return internalrepo.NewFileModelStore(cfg.Training.ModelDir)
}

// ProvideRunStateStore opens the checkpoint directory.
func ProvideRunStateStore(cfg *config.Config) (domrepo.RunStateStore, error) {
	return internalrepo.NewFileRunStateStore(cfg.Pipeline.StateDir)
}

// ProvideReportWriter opens the report output directory.
func ProvideReportWriter(cfg *config.Config) (domrepo.ReportWriter, error) {
	return internalrepo.NewFileReportWriter(cfg.Pipeline.OutputDir)
}

// ProvideProviderChain wires the market-data providers behind the cache.
func ProvideProviderChain(cfg *config.Config, c cache.Service, m domrepo.Metrics, log *logger.Logger) *providers.Chain {
	return providers.NewChain(cfg.Providers, c, m, log)
}

// ProvideScanner creates the universe scanner.
func ProvideScanner(chain *providers.Chain, candles domrepo.CandleStore, cfg *config.Config, log *logger.Logger) *usecase.Scanner {
	return usecase.NewScanner(chain, candles, cfg.Pipeline, log)
}

// ProvideRegimeEngine creates the market regime engine.
func ProvideRegimeEngine(cfg *config.Config, c cache.Service, log *logger.Logger) service.RegimeEngine {
	return regime.NewEngine(cfg.Regime, c, log)
}

// ProvideSentimentAnalyzer bridges to the sentiment capability, or nil
// when disabled.
func ProvideSentimentAnalyzer(cfg *config.Config, c cache.Service, log *logger.Logger) service.SentimentAnalyzer {
	if !cfg.Sentiment.Enabled {
		return nil
	}
	return sentiment.NewAnalyzer(cfg.Sentiment, c, log)
}

// ProvideForecastService bridges to the time-series model capability.
func ProvideForecastService(cfg *config.Config) service.ForecastService {
	return forecast.NewClient(cfg.Forecast)
}

// ProvideSignalProviders assembles the four predictors in canonical
// weight order.
func ProvideSignalProviders(fs service.ForecastService, store domrepo.ModelStore, analyzer service.SentimentAnalyzer, cfg *config.Config, log *logger.Logger) []service.SignalProvider {
	return []service.SignalProvider{
		signal.NewForecastProvider(fs, store, cfg.StalenessThreshold(), log),
		signal.NewTrendProvider(),
		signal.NewTechnicalProvider(),
		signal.NewSentimentProvider(analyzer, log),
	}
}

// ProvideEnsemble creates the weighted consensus predictor.
func ProvideEnsemble(provs []service.SignalProvider, cfg *config.Config, log *logger.Logger) *usecase.Ensemble {
	return usecase.NewEnsemble(provs, cfg.Ensemble.Weights(), log)
}

// ProvideEventRiskGuard creates the calendar risk guard.
func ProvideEventRiskGuard(cfg *config.Config) *usecase.EventRiskGuard {
	return usecase.NewEventRiskGuard(cfg.EventRisk)
}

// ProvideScorer creates the opportunity scorer.
func ProvideScorer(cfg *config.Config) *usecase.Scorer {
	return usecase.NewScorer(cfg.Scoring, cfg.EventRisk)
}

// ProvideTrainer creates the model training scheduler.
func ProvideTrainer(fs service.ForecastService, store domrepo.ModelStore, m domrepo.Metrics, cfg *config.Config, log *logger.Logger) *usecase.Trainer {
	return usecase.NewTrainer(fs, store, m, cfg.Training, log)
}

// ProvidePipeline assembles the orchestrator.
func ProvidePipeline(
	cfg *config.Config,
	scanner *usecase.Scanner,
	regimeEngine service.RegimeEngine,
	ensemble *usecase.Ensemble,
	guard *usecase.EventRiskGuard,
	scorer *usecase.Scorer,
	trainer *usecase.Trainer,
	analyzer service.SentimentAnalyzer,
	states domrepo.RunStateStore,
	reports domrepo.ReportWriter,
	sink domrepo.ResultSink,
	notifier service.Notifier,
	m domrepo.Metrics,
	collector *logger.WarningCollector,
	log *logger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineParams{
		Config:    cfg,
		Scanner:   scanner,
		Regime:    regimeEngine,
		Ensemble:  ensemble,
		Guard:     guard,
		Scorer:    scorer,
		Trainer:   trainer,
		Sentiment: analyzer,
		States:    states,
		Reports:   reports,
		Sink:      sink,
		Notifier:  notifier,
		Metrics:   m,
		Collector: collector,
		Log:       log,
	})
}

// ProvideStatusHandler exposes the operator status routes.
func ProvideStatusHandler(states domrepo.RunStateStore, log *logger.Logger) xhttp.Handler {
	return api.NewStatusHandler(states, log)
}

// ProvideApp assembles the application with its teardown list.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	pipeline *usecase.Pipeline,
	statusHandler xhttp.Handler,
	c cache.Service,
	chClient *pkgch.Client,
	notifier service.Notifier,
) *server.App {
	var closers []io.Closer
	closers = append(closers, c)
	if chClient != nil {
		closers = append(closers, chClient)
	}
	if kn, ok := notifier.(*internalrepo.KafkaNotifier); ok {
		closers = append(closers, kn)
	}
	return server.New(cfg, log, pipeline, statusHandler, closers...)
}
