package di

import (
	"context"
	"fmt"
	"time"

	"SigForge/internal/domain/repository"
	domsvc "SigForge/internal/domain/service"
	"SigForge/internal/handler/api"
	internalrepo "SigForge/internal/repository"
	"SigForge/internal/service/quality"
	"SigForge/internal/services/features"
	"SigForge/internal/services/signals"
	"SigForge/internal/usecase"
	pkgcache "SigForge/pkg/cache"
	pkgch "SigForge/pkg/clickhouse"
	"SigForge/pkg/config"
	xhttp "SigForge/pkg/http"
	pkgkafka "SigForge/pkg/kafka"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/metrics"
	pkgqueue "SigForge/pkg/queue"
	"SigForge/pkg/server"

	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the structured logger from YAML config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// configured storage backend does not need one.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Storage.Backend != "clickhouse" {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout.Std(), 30*time.Second),
		pkgch.WithDebug(cfg.ClickHouse.Debug),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.market_bars (ts DateTime64(9), symbol LowCardinality(String), open Float64, high Float64, low Float64, close Float64, volume Int64, vwap Nullable(Float64), source LowCardinality(String)) ENGINE=MergeTree ORDER BY (symbol, ts)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.alt_events (ts DateTime64(9), source LowCardinality(String), sentiment_score Float64, entities Array(String), text String) ENGINE=MergeTree ORDER BY ts", db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideMarketDataSource selects the bar and event source for the
// configured backend: parquet files under the data dir, or ClickHouse.
func ProvideMarketDataSource(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) repository.MarketDataSource {
	if cfg.Storage.Backend == "clickhouse" && chClient != nil {
		src := internalrepo.NewCHMarketSource(chClient, cfg.ClickHouse.Database)
		src.SetLogger(l)
		return src
	}
	src := internalrepo.NewParquetMarketSource(cfg.Storage.DataDir)
	src.SetLogger(l)
	return src
}

// ProvideFeatureStore creates the parquet feature table store. Derived
// tables are always files so runs stay inspectable with standard tooling.
func ProvideFeatureStore(cfg *config.Config, l *applogger.Logger) repository.FeatureStore {
	store := internalrepo.NewParquetFeatureStore(cfg.Storage.DataDir)
	store.SetLogger(l)
	return store
}

// ProvideSignalStore creates the parquet signal table store.
func ProvideSignalStore(cfg *config.Config, l *applogger.Logger) repository.SignalStore {
	store := internalrepo.NewParquetSignalStore(cfg.Storage.DataDir)
	store.SetLogger(l)
	return store
}

// ProvideFeatureEngine creates the feature derivation engine from the
// configured windows.
func ProvideFeatureEngine(cfg *config.Config, l *applogger.Logger) domsvc.FeatureEngine {
	return features.NewEngine(features.Params{
		SMAWindow:            cfg.Features.SMAWindow,
		EMASpan:              cfg.Features.EMASpan,
		RSIWindow:            cfg.Features.RSIWindow,
		MACDFast:             cfg.Features.MACDFast,
		MACDSlow:             cfg.Features.MACDSlow,
		MACDSignalSpan:       cfg.Features.MACDSignal,
		BollingerWindow:      cfg.Features.BollingerWindow,
		VolatilityWindow:     cfg.Features.VolatilityWindow,
		ZScoreWindow:         cfg.Features.ZScoreWindow,
		RSIZScore:            cfg.Features.RSIZScore,
		SentimentGranularity: repository.NormalizeGranularity(cfg.Features.SentimentGranularity),
		SentimentShortWindow: cfg.Features.SentimentShortWindow,
		SentimentLongWindow:  cfg.Features.SentimentLongWindow,
	}, l)
}

// ProvideSignalEngine creates the signal combination engine from the
// configured weights and thresholds.
func ProvideSignalEngine(cfg *config.Config, l *applogger.Logger) domsvc.SignalEngine {
	return signals.NewEngine(signals.Params{
		Weights: signals.Weights{
			Technical:       cfg.Signals.Weights.Technical,
			SentimentMean:   cfg.Signals.Weights.SentimentMean,
			SentimentReddit: cfg.Signals.Weights.SentimentReddit,
			SentimentNews:   cfg.Signals.Weights.SentimentNews,
		},
		Thresholds: signals.Thresholds{
			Buy:  cfg.Signals.Thresholds.Buy,
			Sell: cfg.Signals.Thresholds.Sell,
		},
	}, l)
}

// ProvideQualityScanner creates the table quality scanner with its audit log.
func ProvideQualityScanner(cfg *config.Config, l *applogger.Logger, m repository.Metrics) domsvc.QualityScanner {
	return quality.NewScanner(l, m, quality.NewAuditLog(cfg.Quality.AuditDir))
}

// ProvideRedisCache creates the Redis cache layer, or nil when Redis is
// disabled. The underlying client is shared with the job queue.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("sigforge:cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache picks the cache service: layered (memory over Redis) when
// Redis is available, in-process memory otherwise.
func ProvideCache(cfg *config.Config, rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cfg.Cache.MaxEntries))
	}
	return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MaxEntries))
}

// ProvideQueue creates the Redis-backed job queue, or nil when Redis is
// disabled; backfills then run inline instead of being enqueued.
func ProvideQueue(cfg *config.Config, rc *pkgcache.RedisCache, l *applogger.Logger) *pkgqueue.RedisQueue {
	if rc == nil {
		return nil
	}
	return pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay.Std(),
	}, rc.Client(), pkgqueue.ModeProducerConsumer, pkgqueue.WithKeyPrefix(cfg.Queue.KeyPrefix))
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled. A nil producer silently disables run-event publishing.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.RetryMax),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or
// nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.RetryMax, cfg.Kafka.BackoffMin.Std(), cfg.Kafka.BackoffMax.Std()),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRunEventPublisher creates the run-event publisher for the events topic.
func ProvideRunEventPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) *usecase.RunEventPublisher {
	return usecase.NewRunEventPublisher(producer, cfg.Kafka.EventsTopic, l)
}

// ProvideFeaturePipeline creates the feature derivation use case.
func ProvideFeaturePipeline(
	source repository.MarketDataSource,
	store repository.FeatureStore,
	engine domsvc.FeatureEngine,
	scanner domsvc.QualityScanner,
	cache pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.FeaturePipeline {
	return usecase.NewFeaturePipeline(source, store, engine, scanner, cache, m, l)
}

// ProvideSignalPipeline creates the signal generation use case.
func ProvideSignalPipeline(
	featureStore repository.FeatureStore,
	store repository.SignalStore,
	engine domsvc.SignalEngine,
	scanner domsvc.QualityScanner,
	cache pkgcache.Service,
	publisher *usecase.RunEventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SignalPipeline {
	return usecase.NewSignalPipeline(featureStore, store, engine, scanner, cache, publisher, m, l)
}

// ProvidePipelineRunner creates the stage dispatcher shared by the API, the
// queue job and the Kafka handler.
func ProvidePipelineRunner(f *usecase.FeaturePipeline, s *usecase.SignalPipeline) *usecase.PipelineRunner {
	return usecase.NewPipelineRunner(f, s)
}

// ProvideBackfill creates the historical range runner.
func ProvideBackfill(runner *usecase.PipelineRunner, queue *pkgqueue.RedisQueue, cfg *config.Config, l *applogger.Logger) *usecase.Backfill {
	return usecase.NewBackfill(runner, queue, cfg.Queue.Workers, l)
}

// ProvidePipelineJob creates the queue job that replays pipeline runs.
func ProvidePipelineJob(runner *usecase.PipelineRunner, l *applogger.Logger) *usecase.PipelineJob {
	return usecase.NewPipelineJob(runner, l)
}

// ProvideJobsHandler registers the handler for the pipeline jobs topic.
func ProvideJobsHandler(cfg *config.Config, runner *usecase.PipelineRunner, m repository.Metrics) pkgkafka.MessageHandler {
	return usecase.NewGenerateJobHandler(cfg.Kafka.JobsTopic, runner, m)
}

// ProvideTableQueries creates the read-side table queries.
func ProvideTableQueries(fs repository.FeatureStore, ss repository.SignalStore) *usecase.TableQueries {
	return usecase.NewTableQueries(fs, ss)
}

// ProvideHTTPHandler creates the REST handler with its cache and logger.
func ProvideHTTPHandler(
	f *usecase.FeaturePipeline,
	s *usecase.SignalPipeline,
	q *usecase.TableQueries,
	cache pkgcache.Service,
	l *applogger.Logger,
) xhttp.Handler {
	h := api.NewPipelineHandler(f, s, q)
	h.SetCache(cache)
	h.SetLogger(l)
	return h
}

// consumerHooks builds the hook chain attached to the jobs consumer: trace
// id propagation, handle latency, error counting.
func consumerHooks(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.NewHookChain(
		pkgkafka.HookFuncs{
			Before: func(ctx context.Context, _ string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
				ctx = pkgkafka.WithStartTime(ctx, time.Now())
				ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
				return ctx, km, data, nil
			},
		},
		pkgkafka.HookFuncs{
			After: func(ctx context.Context, _ string, _ kafkago.Message, _ []byte, _ error) {
				if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
					m.RecordDuration("kafka_handle", time.Since(start).Seconds())
				}
			},
			Err: func(_ context.Context, _ string, _ kafkago.Message, _ []byte, _ error) {
				m.RecordError("consumer_handle")
			},
		},
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	runner *usecase.PipelineRunner,
	backfill *usecase.Backfill,
	job *usecase.PipelineJob,
	consumer *pkgkafka.Consumer,
	jobsHandler pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	queue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	cache pkgcache.Service,
	m repository.Metrics,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(consumerHooks(m))
	}
	return server.New(cfg, l, handler, runner, backfill, job, consumer, jobsHandler, producer, queue, chClient, cache)
}
