package di

import (
	"context"
	"fmt"
	"time"

	"OppRadar/internal/buffer"
	"OppRadar/internal/domain/repository"
	domsvc "OppRadar/internal/domain/service"
	"OppRadar/internal/handler/api"
	mid "OppRadar/internal/middleware"
	internalrepo "OppRadar/internal/repository"
	icache "OppRadar/internal/service/cache"
	"OppRadar/internal/service/bybit"
	analytics "OppRadar/internal/services/analytics"
	"OppRadar/internal/usecase"
	pkgch "OppRadar/pkg/clickhouse"
	"OppRadar/pkg/config"
	xhttp "OppRadar/pkg/http"
	pkgkafka "OppRadar/pkg/kafka"
	applogger "OppRadar/pkg/logger"
	"OppRadar/pkg/metrics"
	"OppRadar/pkg/queue"
	"OppRadar/pkg/server"
)

// ProvideLogger creates the application logger with an error collector so
// the /api/errors endpoint has data to serve.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
	})
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists. Table schema is owned by the opportunity store.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when broadcasting is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
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

// ProvideOpportunityStore creates the ClickHouse-backed opportunity store.
func ProvideOpportunityStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.OpportunityStore {
	store := internalrepo.NewCHOpportunityStore(chClient, cfg.ClickHouse.Table)
	store.SetLogger(l)
	return store
}

// ProvideOpportunityPublisher creates the Kafka fan-out publisher, or a noop
// when Kafka is disabled.
func ProvideOpportunityPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.OpportunityPublisher {
	if producer == nil {
		return internalrepo.NoopOpportunityPublisher{}
	}
	return internalrepo.NewKafkaOpportunityPublisher(producer, cfg.Kafka.TopicPrefix, cfg.Kafka.AlertTopic)
}

// ProvideMarketStream creates the Bybit WebSocket stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return bybit.New(
		cfg.Bybit.WebSocketURL,
		cfg.Bybit.RestURL,
		bybit.WithPingInterval(cfg.Bybit.PingInterval),
		bybit.WithReconnect(cfg.Bybit.ReconnectDelay, cfg.Bybit.MaxReconnects),
		bybit.WithLogger(l),
	)
}

// ProvideBufferStore creates the sharded rolling-history store.
func ProvideBufferStore(cfg *config.Config) *buffer.Store {
	return buffer.NewStore(cfg.Analysis.BufferCapacity)
}

// ProvideTickPipeline creates the ingest pipeline between WebSocket and buffers.
func ProvideTickPipeline(buffers *buffer.Store, m repository.Metrics, cfg *config.Config) *mid.TickPipeline {
	return mid.NewTickPipeline(buffers, m,
		mid.WithMaxRPS(cfg.Analysis.MaxTicksPerSec),
	)
}

// ProvideAnomalyDetector creates the ML enrichment client, or a noop when
// no ML service is configured.
func ProvideAnomalyDetector(cfg *config.Config, l *applogger.Logger) domsvc.AnomalyDetector {
	if !cfg.ML.Enabled || cfg.ML.URL == "" {
		return analytics.NoopAnomalyDetector{}
	}
	return analytics.NewMLAnomalyClient(cfg.ML.URL, cfg.ML.Timeout, cfg.ML.CacheTTL, l)
}

// ProvideScorer creates the scoring engine with configured thresholds.
func ProvideScorer(cfg *config.Config) *analytics.Scorer {
	return analytics.NewScorer(analytics.ScoreConfig{
		BuyThreshold:  cfg.Analysis.BuyThreshold,
		SellThreshold: cfg.Analysis.SellThreshold,
		MLThreshold:   cfg.Analysis.MLThreshold,
	})
}

// ProvideAnalyzer creates the per-symbol analysis use case.
func ProvideAnalyzer(
	buffers *buffer.Store,
	anomalies domsvc.AnomalyDetector,
	scorer *analytics.Scorer,
	publisher repository.OpportunityPublisher,
	store repository.OpportunityStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(
		buffers, anomalies, scorer, publisher, store, m, l,
		"bybit",
		cfg.Analysis.MinSamples,
		cfg.Analysis.MinVolumeUSD,
	)
}

// ProvidePool creates the bounded analysis worker pool.
func ProvidePool(cfg *config.Config) *queue.Pool {
	return queue.NewPool(cfg.Analysis.Workers, cfg.Analysis.QueueSize)
}

// ProvideScheduler creates the per-symbol analysis scheduler.
func ProvideScheduler(
	buffers *buffer.Store,
	analyzer *usecase.Analyzer,
	pool *queue.Pool,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Scheduler {
	return usecase.NewScheduler(buffers, analyzer, pool, m, l, cfg.Analysis.Interval)
}

// ProvideMonitor creates the subscription lifecycle owner.
func ProvideMonitor(
	stream repository.MarketStream,
	pipe *mid.TickPipeline,
	sched *usecase.Scheduler,
	l *applogger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(stream, pipe, sched, l)
}

// ProvideQueryService creates the read-side use case.
func ProvideQueryService(
	store repository.OpportunityStore,
	sched *usecase.Scheduler,
	stream repository.MarketStream,
) *usecase.QueryService {
	return usecase.NewQueryService(store, sched, stream)
}

// ProvideHTTPHandler creates the Echo API handler with caching and the
// infrastructure health probe wired in.
func ProvideHTTPHandler(
	l *applogger.Logger,
	queries *usecase.QueryService,
	store repository.OpportunityStore,
	monitor *usecase.Monitor,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewOpportunitiesHandler(l, queries)

	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}

	h.SetHealthCheck(func() map[string]string {
		out := map[string]string{"stream": "down", "storage": "down"}
		if monitor.IsConnected() {
			out["stream"] = "up"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Health(ctx); err == nil {
			out["storage"] = "up"
		}
		return out
	})
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	monitor *usecase.Monitor,
	pool *queue.Pool,
	store repository.OpportunityStore,
	publisher repository.OpportunityPublisher,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	app := server.New(cfg, l, monitor, pool, store, publisher, chClient)
	app.SetHTTPHandler(handler)
	return app
}
