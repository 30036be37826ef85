package di

import (
	"fmt"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	domsvc "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/service"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/handler/api"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/handler/chat"
	internalrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/marketdata"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/ratelimit"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/telegram"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/services/market"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/services/scoring"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/usecase"
	pkgcache "github.com/adityamasineedi/mcpcrypto-sub001/pkg/cache"
	pkgch "github.com/adityamasineedi/mcpcrypto-sub001/pkg/clickhouse"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	xhttp "github.com/adityamasineedi/mcpcrypto-sub001/pkg/http"
	pkgkafka "github.com/adityamasineedi/mcpcrypto-sub001/pkg/kafka"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/metrics"
	pkgqueue "github.com/adityamasineedi/mcpcrypto-sub001/pkg/queue"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSettings creates the runtime settings store.
func ProvideSettings(cfg *config.Config) *usecase.Settings {
	return usecase.NewSettings(cfg)
}

// ProvideGapLimiter creates the per-symbol signal gap limiter.
func ProvideGapLimiter() *ratelimit.GapLimiter {
	return ratelimit.New()
}

// ProvideClickHouseClient creates a ClickHouse client when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
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
	return client, nil
}

// ProvideHistoryStore creates the signal history store when ClickHouse
// is available.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseHistory(chClient.DB(), cfg.ClickHouse.Database+".signal_events")
}

// ProvideKafkaProducer creates a Kafka producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
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

// ProvideKafkaConsumer creates a consumer for the events topic. History
// persistence requires both Kafka and ClickHouse.
func ProvideKafkaConsumer(cfg *config.Config, chClient *pkgch.Client) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || chClient == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideKafkaEventsHandler registers the events-to-history handler.
func ProvideKafkaEventsHandler(history repository.HistoryStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaEventsHandler {
	if history == nil {
		return nil
	}
	return usecase.NewKafkaEventsHandler(cfg.Kafka.EventsTopic, history, m)
}

// ProvideRedisCache creates a Redis cache when enabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideIndicatorProvider creates the indicator snapshot adapter.
func ProvideIndicatorProvider(cfg *config.Config) domsvc.IndicatorProvider {
	return market.NewHTTPIndicatorProvider(cfg)
}

// ProvideAssessor creates the assessment adapter, layered-cached when
// Redis is available.
func ProvideAssessor(cfg *config.Config, rc *pkgcache.RedisCache) domsvc.Assessor {
	base := market.NewHTTPAssessor(cfg)
	if rc == nil {
		return base
	}
	layered := pkgcache.NewLayeredCache(rc)
	return market.NewCachedAssessor(base, layered, cfg.Market.AssessmentCacheTTL)
}

// ProvideScorer creates the technical rule aggregator.
func ProvideScorer() *scoring.Aggregator {
	return scoring.NewAggregator()
}

// ProvideAssembler creates the signal assembler.
func ProvideAssembler(cfg *config.Config, settings *usecase.Settings) *usecase.Assembler {
	return usecase.NewAssembler(cfg, settings)
}

// ProvideQualityGate creates the pre-approval quality gate.
func ProvideQualityGate(cfg *config.Config, settings *usecase.Settings, limiter *ratelimit.GapLimiter, m repository.Metrics, l *logger.Logger) *usecase.QualityGate {
	return usecase.NewQualityGate(cfg, settings, limiter, m, l)
}

// ProvideTelegramClient creates the bot client when enabled.
func ProvideTelegramClient(cfg *config.Config) *telegram.Client {
	if !cfg.Telegram.Enabled {
		return nil
	}
	return telegram.NewClient(cfg)
}

// ProvideTelegramQueue creates the Redis-backed delivery queue with the
// notify job registered. Telegram delivery requires Redis.
func ProvideTelegramQueue(cfg *config.Config, l *logger.Logger, rc *pkgcache.RedisCache, tc *telegram.Client) *pkgqueue.RedisQueue {
	if tc == nil || rc == nil {
		return nil
	}
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    cfg.Telegram.QueueWorkers,
		RetryLimit: cfg.Telegram.RetryLimit,
		RetryDelay: cfg.Telegram.RetryDelay,
	}, rc.Client(), pkgqueue.ModeProducerConsumer,
		pkgqueue.WithKeyPrefix("mcpcrypto:queue"))
	q.RegisterJob(telegram.NewNotifyJob(tc, internalrepo.TelegramNotifyType, l))
	return q
}

// ProvideEventRouter wires the enabled notification sinks.
func ProvideEventRouter(cfg *config.Config, m repository.Metrics, l *logger.Logger, producer *pkgkafka.Producer, q *pkgqueue.RedisQueue) *usecase.EventRouter {
	router := usecase.NewEventRouter(m, l)
	if producer != nil {
		router.Register("kafka", internalrepo.NewKafkaNotifier(producer, cfg.Kafka.EventsTopic))
	}
	if q != nil {
		router.Register("telegram", internalrepo.NewQueueNotifier(q))
	}
	return router
}

// ProvideEventPipeline creates the buffered event dispatcher.
func ProvideEventPipeline(router *usecase.EventRouter, m repository.Metrics, l *logger.Logger) *usecase.EventPipeline {
	return usecase.NewEventPipeline(router, m, l)
}

// ProvideWorkflow creates the approval workflow.
func ProvideWorkflow(settings *usecase.Settings, pipeline *usecase.EventPipeline, m repository.Metrics, l *logger.Logger) *usecase.ApprovalWorkflow {
	return usecase.NewApprovalWorkflow(settings, pipeline, m, l)
}

// ProvideGenerator creates the scan-driven signal generator.
func ProvideGenerator(
	cfg *config.Config,
	indicators domsvc.IndicatorProvider,
	assessor domsvc.Assessor,
	scorer *scoring.Aggregator,
	assembler *usecase.Assembler,
	gate *usecase.QualityGate,
	workflow *usecase.ApprovalWorkflow,
	prices *usecase.PriceCollector,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SignalGenerator {
	return usecase.NewSignalGenerator(cfg, indicators, assessor, scorer, assembler, gate, workflow, prices, m, l)
}

// ProvidePriceStream creates the WebSocket price stream when enabled.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	if !cfg.Market.Stream.Enabled {
		return nil
	}
	return marketdata.New(
		cfg.Market.Stream.APIKey,
		cfg.Market.Stream.WebSocketURL,
		cfg.Market.Symbols,
		cfg.Market.Stream.ReconnectDelay,
		cfg.Market.Stream.PingInterval,
	)
}

// ProvidePriceCollector creates the price collector when a stream exists.
func ProvidePriceCollector(stream repository.PriceStream, m repository.Metrics) *usecase.PriceCollector {
	if stream == nil {
		return nil
	}
	return usecase.NewPriceCollector(stream, m)
}

// ProvideTelegramPoller creates the callback poller when the bot exists.
func ProvideTelegramPoller(cfg *config.Config, tc *telegram.Client, workflow *usecase.ApprovalWorkflow, l *logger.Logger) *chat.TelegramPoller {
	if tc == nil {
		return nil
	}
	return chat.NewTelegramPoller(cfg, tc, workflow, l)
}

// ProvideApprovalsHandler creates the REST handler.
func ProvideApprovalsHandler(
	l *logger.Logger,
	workflow *usecase.ApprovalWorkflow,
	settings *usecase.Settings,
	pipeline *usecase.EventPipeline,
	history repository.HistoryStore,
) xhttp.Handler {
	return api.NewApprovalsEchoHandler(l, workflow, settings, pipeline, history)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	generator *usecase.SignalGenerator,
	workflow *usecase.ApprovalWorkflow,
	pipeline *usecase.EventPipeline,
	router *usecase.EventRouter,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaEventsHandler,
	q *pkgqueue.RedisQueue,
	poller *chat.TelegramPoller,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	history repository.HistoryStore,
) *server.App {
	deps := server.Deps{
		Logger:    l,
		Generator: generator,
		Workflow:  workflow,
		Pipeline:  pipeline,
		Router:    router,
		Collector: collector,
		Consumer:  consumer,
		Queue:     q,
		Poller:    poller,
		Handler:   handler,
		CHClient:  chClient,
		History:   history,
	}
	if kh != nil {
		deps.EventsKH = kh
	}
	return server.New(cfg, deps)
}
