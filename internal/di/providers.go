package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domrepo "PriceOpt/internal/domain/repository"
	domsvc "PriceOpt/internal/domain/service"
	"PriceOpt/internal/handler/api"
	"PriceOpt/internal/middleware"
	internalrepo "PriceOpt/internal/repository"
	icache "PriceOpt/internal/service/cache"
	svcmetrics "PriceOpt/internal/service/metrics"
	"PriceOpt/internal/service/progress"
	"PriceOpt/internal/service/ratelimit"
	"PriceOpt/internal/services/report"
	"PriceOpt/internal/usecase"
	"PriceOpt/pkg/cache"
	pkgch "PriceOpt/pkg/clickhouse"
	"PriceOpt/pkg/config"
	xhttp "PriceOpt/pkg/http"
	pkgkafka "PriceOpt/pkg/kafka"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/metrics"
	"PriceOpt/pkg/queue"
	"PriceOpt/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics registers the pricing counters and returns the Prometheus recorder.
func ProvideMetrics() domrepo.Metrics {
	svcmetrics.Register()
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Session.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideSessionStore prefers Redis and falls back to the in-process store.
func ProvideSessionStore(rc *cache.RedisCache) (cache.Store, func()) {
	if rc != nil {
		return rc, func() {}
	}
	mc := cache.NewMemoryCache()
	return mc, func() { _ = mc.Close() }
}

func ProvideDatasetRepository(store cache.Store, cfg *config.Config) domrepo.DatasetRepository {
	return internalrepo.NewDatasetRepository(store, cfg.Session.TTL)
}

// ProvideClickHouseClient connects and creates the analyses table when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.AnalysisSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideAnalysisStore(client *pkgch.Client, cfg *config.Config) domrepo.AnalysisStore {
	if client == nil {
		return internalrepo.NoopAnalysisStore{}
	}
	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	return internalrepo.NewClickHouseAnalysisStore(client.DB(), table, cfg.ClickHouse.BatchSize)
}

// ProvideKafkaProducer creates the producer and ships error digests to the logs topic.
func ProvideKafkaProducer(cfg *config.Config, lgr *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Producer.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.Producer.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.LogsTopic != "" {
		lgr.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return producer, func() {
		lgr.RemoveCollector()
		_ = producer.Close()
	}, nil
}

func ProvideRecommendationPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.RecommendationPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaRecommendationPublisher(producer, cfg.Kafka.RecommendationsTopic)
}

func ProvideProgressBroker() *progress.Broker {
	return progress.NewBroker(64)
}

func ProvideEnrichment(
	repo domrepo.DatasetRepository,
	store domrepo.AnalysisStore,
	broker *progress.Broker,
	m domrepo.Metrics,
	lgr *logger.Logger,
	cfg *config.Config,
) *usecase.Enrichment {
	return usecase.NewEnrichment(repo, store, broker, m, lgr, cfg.Pricing.Workers, cfg.Pricing.MinObservations)
}

func ProvideDatasets(repo domrepo.DatasetRepository, lgr *logger.Logger, cfg *config.Config) *usecase.Datasets {
	return usecase.NewDatasets(repo, lgr, cfg.Pricing.MinObservations)
}

func ProvideChatRepository(store cache.Store, cfg *config.Config) domrepo.ChatRepository {
	return internalrepo.NewChatRepository(store, cfg.Chat.TTL, cfg.Chat.MaxHistory)
}

func ProvideChat(repo domrepo.ChatRepository, lgr *logger.Logger) *usecase.Chat {
	return usecase.NewChat(repo, lgr)
}

func ProvidePricing(m domrepo.Metrics, cfg *config.Config) *usecase.Pricing {
	return usecase.NewPricing(m, cfg.Pricing.DefaultTargetMargin)
}

// ProvideQueue builds the background enrichment queue: Redis-backed when Redis
// is configured, in-process otherwise.
func ProvideQueue(cfg *config.Config, lgr *logger.Logger, rc *cache.RedisCache, enrichment *usecase.Enrichment) queue.Queue {
	if !cfg.Queue.Enabled {
		return nil
	}
	qcfg := queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	var q queue.Queue
	if rc != nil {
		q = queue.NewRedisQueue(lgr, qcfg, rc.Client(), queue.WithKeyPrefix(cfg.Session.Prefix+":queue:"+cfg.Queue.Name))
	} else {
		q = queue.NewMemoryQueue(lgr, qcfg)
	}
	q.RegisterJob(usecase.NewEnrichmentJob(enrichment))
	return q
}

func ProvideScheduler(q queue.Queue, repo domrepo.DatasetRepository) domsvc.EnrichmentScheduler {
	if q == nil {
		return nil
	}
	return usecase.NewQueueScheduler(q, repo)
}

func ProvideObservationProcessor(
	pub domrepo.RecommendationPublisher,
	store domrepo.AnalysisStore,
	m domrepo.Metrics,
	lgr *logger.Logger,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(pub, store, m, lgr, cfg.Pricing.WindowSize, cfg.ClickHouse.BatchSize)
}

func ProvidePipeline(proc *usecase.ObservationProcessor, m domrepo.Metrics, cfg *config.Config) *middleware.RealtimePipeline {
	return middleware.NewRealtimePipeline(proc, m,
		middleware.WithMaxRPS(cfg.Kafka.MaxEventsPerSecond),
		middleware.WithBufferSize(cfg.Kafka.Consumer.BufferSize*4),
	)
}

// ProvideKafkaConsumer subscribes the observation handler when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config, lgr *logger.Logger, pipeline *middleware.RealtimePipeline) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(lgr,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(pkgkafka.TraceIDHook())
	consumer.RegisterHandler(usecase.NewObservationsHandler(cfg.Kafka.ObservationsTopic, pipeline, lgr))
	return consumer, nil
}

// ProvideHTTPHandler assembles every API handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	lgr *logger.Logger,
	pricing *usecase.Pricing,
	datasets *usecase.Datasets,
	enrichment *usecase.Enrichment,
	scheduler domsvc.EnrichmentScheduler,
	broker *progress.Broker,
	repo domrepo.DatasetRepository,
	store cache.Store,
	analysis domrepo.AnalysisStore,
	chat *usecase.Chat,
) xhttp.Handler {
	format := report.DefaultFormat()
	if r := []rune(cfg.Pricing.ExportDelimiter); len(r) == 1 {
		format.Delimiter = r[0]
	}
	format.DecimalComma = cfg.Pricing.DecimalComma

	return api.NewRouter(
		api.NewPricingHandler(lgr, pricing),
		api.NewDataHandler(lgr, datasets, enrichment, scheduler, icache.NewTTLCache(),
			ratelimit.New(cfg.RateLimit.UploadCapacity, cfg.RateLimit.UploadRefill),
			api.DataHandlerConfig{MaxUploadBytes: cfg.Server.MaxUploadBytes, Format: format}),
		api.NewProgressHandler(lgr, broker),
		api.NewChatHandler(lgr, chat),
		api.NewStatusHandler(cfg.Environment, repo, map[string]api.Checker{
			"sessions":  api.CheckFunc(store.Ping),
			"analytics": analysis,
		}),
	)
}

func ProvideHTTPServer(cfg *config.Config, lgr *logger.Logger, handler xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handler, lgr,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	pipeline *middleware.RealtimePipeline,
	proc *usecase.ObservationProcessor,
	q queue.Queue,
) *server.App {
	return server.New(cfg, lgr, httpServer,
		server.WithConsumer(consumer, pipeline, proc),
		server.WithQueue(q),
	)
}
