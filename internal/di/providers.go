package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"EpiCast/internal/domain/repository"
	"EpiCast/internal/handler/api"
	internalrepo "EpiCast/internal/repository"
	"EpiCast/internal/service/registry"
	"EpiCast/internal/services/forecasting"
	"EpiCast/internal/usecase"
	"EpiCast/pkg/cache"
	pkgch "EpiCast/pkg/clickhouse"
	"EpiCast/pkg/config"
	xhttp "EpiCast/pkg/http"
	pkgkafka "EpiCast/pkg/kafka"
	"EpiCast/pkg/logger"
	"EpiCast/pkg/metrics"
	"EpiCast/pkg/queue"
	"EpiCast/pkg/server"
	"EpiCast/pkg/util"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
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

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.lab_tests (
			date Date, disease String, total_tests Int32, positive_tests Int32, updated_at DateTime
		) ENGINE=ReplacingMergeTree(updated_at) ORDER BY (disease, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.medicine_sales (
			date Date, medicine String, sale Float64, disease_category String, updated_at DateTime
		) ENGINE=ReplacingMergeTree(updated_at) ORDER BY (medicine, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.forecasts (
			id String, model_id String, session_id String, disease String, region String,
			date Date, predicted_cases Int32, actual_cases Nullable(Int32), mae Nullable(Float64), created_at DateTime
		) ENGINE=MergeTree ORDER BY (disease, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.training_sessions (
			id String, disease String, training_start Date, training_end Date,
			forecast_start Date, forecast_end Date, status String, mae Nullable(Float64),
			model_id String, error String, forecast_count Int32, created_at DateTime, updated_at DateTime
		) ENGINE=ReplacingMergeTree(updated_at) ORDER BY id`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.forecast_models (
			id String, name String, version String, algorithm String, disease String,
			artifact_path String, status String, train_mae Float64, metrics String,
			trained_at DateTime, created_at DateTime
		) ENGINE=ReplacingMergeTree(created_at) ORDER BY id`, db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesStore creates ClickHouse series storage.
func ProvideSeriesStore(chClient *pkgch.Client, cfg *config.Config) repository.SeriesStore {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseSeriesStore(chClient.DB(), db+".lab_tests", db+".medicine_sales")
}

// ProvideForecastStore creates ClickHouse forecast storage.
func ProvideForecastStore(chClient *pkgch.Client, cfg *config.Config) repository.ForecastStore {
	return internalrepo.NewClickHouseForecastStore(chClient.DB(), cfg.ClickHouse.Database+".forecasts")
}

// ProvideSessionStore creates ClickHouse training session storage.
func ProvideSessionStore(chClient *pkgch.Client, cfg *config.Config) repository.SessionStore {
	return internalrepo.NewClickHouseSessionStore(chClient.DB(), cfg.ClickHouse.Database+".training_sessions")
}

// ProvideModelMetaStore creates ClickHouse model catalog storage.
func ProvideModelMetaStore(chClient *pkgch.Client, cfg *config.Config) repository.ModelMetaStore {
	return internalrepo.NewClickHouseModelMetaStore(chClient.DB(), cfg.ClickHouse.Database+".forecast_models")
}

// ProvideRedisClient creates a Redis client, nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCache creates the cache service configured by cache.type. The
// redis flavor is layered: memory in front, redis behind, so repeated
// forecast reads stay in-process while locks still go through redis.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Type == "redis" {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc), nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideRegistry creates the filesystem model registry, slot-locked via
// the cache service.
func ProvideRegistry(cfg *config.Config, cacheSvc cache.Service, log *logger.Logger) repository.ModelRegistry {
	return registry.New(cfg.Registry.Dir, cacheSvc, log, registry.WithLockTTL(cfg.Registry.LockTTL))
}

// ProvideForecastingConfig maps config to pipeline tunables.
func ProvideForecastingConfig(cfg *config.Config) forecasting.Config {
	return forecasting.Config{
		Lags:    cfg.Forecasting.Lags,
		Trees:   cfg.Forecasting.Trees,
		Seed:    cfg.Forecasting.Seed,
		MinRows: cfg.Forecasting.MinRows,
	}
}

// ProvideTrainer creates the model trainer.
func ProvideTrainer(fcfg forecasting.Config, log *logger.Logger) *forecasting.Trainer {
	return forecasting.NewTrainer(fcfg, log)
}

// ProvideForecaster creates the recursive forecaster.
func ProvideForecaster(fcfg forecasting.Config, log *logger.Logger) *forecasting.Forecaster {
	return forecasting.NewForecaster(fcfg, log)
}

// ProvideKafkaProducer creates a Kafka producer, nil unless the kafka
// backend is selected.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
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

// ProvideRecordPublisher creates the Kafka record publisher, nil without a
// producer.
func ProvideRecordPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RecordPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRecordPublisher(producer, cfg.Kafka.LabTopic, cfg.Kafka.SalesTopic)
}

// consumeTimingHook stamps handling start time and trace id on the way in
// and records per-message latency and failures on the way out.
func consumeTimingHook(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("consume_"+topic, time.Since(start).Seconds())
			}
			if err != nil {
				m.RecordError("consume_" + topic)
			}
		},
	}
}

// ProvideKafkaConsumer creates a Kafka consumer, nil unless the kafka
// backend is selected.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
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
	consumer.WithConsumerHook(pkgkafka.NewHookChain(consumeTimingHook(m)))
	return consumer, nil
}

// ProvideRecordHandlers creates the record consumers for both topics.
func ProvideRecordHandlers(cfg *config.Config, store repository.SeriesStore, m repository.Metrics) []pkgkafka.MessageHandler {
	if cfg.Backend.Type != "kafka" {
		return nil
	}
	return []pkgkafka.MessageHandler{
		usecase.NewLabRecordHandler(cfg.Kafka.LabTopic, store, m),
		usecase.NewSalesRecordHandler(cfg.Kafka.SalesTopic, store, m),
	}
}

// ProvideRecordProcessor creates the backend router for imported records.
func ProvideRecordProcessor(
	pub repository.RecordPublisher,
	store repository.SeriesStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.RecordProcessor {
	return usecase.NewRecordProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideImporter creates the CSV importer.
func ProvideImporter(processor *usecase.RecordProcessor, log *logger.Logger) *usecase.Importer {
	return usecase.NewImporter(processor, log)
}

// ProvideDataRangeService creates the data range reporter.
func ProvideDataRangeService(store repository.SeriesStore) *usecase.DataRangeService {
	return usecase.NewDataRangeService(store)
}

// ProvidePipeline creates the training pipeline.
func ProvidePipeline(
	series repository.SeriesStore,
	forecasts repository.ForecastStore,
	sessions repository.SessionStore,
	modelMeta repository.ModelMetaStore,
	reg repository.ModelRegistry,
	trainer *forecasting.Trainer,
	forecaster *forecasting.Forecaster,
	m repository.Metrics,
	cacheSvc cache.Service,
	cfg *config.Config,
	log *logger.Logger,
) *usecase.TrainingPipeline {
	return usecase.NewTrainingPipeline(
		series, forecasts, sessions, modelMeta, reg,
		trainer, forecaster, m,
		cacheSvc, cfg.Cache.TTL, cfg.Forecasting.Horizon, log,
	)
}

// ProvideJobQueue creates the Redis training job queue with the
// train-session job registered, nil without Redis.
func ProvideJobQueue(cfg *config.Config, client *redis.Client, pipeline *usecase.TrainingPipeline, log *logger.Logger) *queue.RedisQueue {
	if client == nil {
		return nil
	}
	return queue.NewRedisConsumer(log, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, []queue.Job{usecase.NewTrainSessionJob(pipeline, log)})
}

// ProvideSessionService creates the session front door. With a queue the
// pipeline runs on workers; without one, inline.
func ProvideSessionService(sessions repository.SessionStore, pipeline *usecase.TrainingPipeline, jobQueue *queue.RedisQueue, log *logger.Logger) *usecase.SessionService {
	var publisher queue.QueueService
	if jobQueue != nil {
		publisher = jobQueue
	}
	return usecase.NewSessionService(sessions, pipeline, publisher, log)
}

// ProvideScheduler creates the daily forecast schedule, nil when disabled.
func ProvideScheduler(cfg *config.Config, pipeline *usecase.TrainingPipeline, log *logger.Logger) (*usecase.ForecastScheduler, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	return usecase.NewForecastScheduler(pipeline, cfg.Schedule.DailyForecast, log)
}

// ProvideOpsHandler creates the ops HTTP handler.
func ProvideOpsHandler(log *logger.Logger, series repository.SeriesStore) xhttp.Handler {
	return api.NewOpsHandler(log, series)
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server. With a Kafka producer present,
// aggregated error logs are shipped to the log topic.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	hh xhttp.Handler,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	jobQueue *queue.RedisQueue,
	scheduler *usecase.ForecastScheduler,
	processor *usecase.RecordProcessor,
	chClient *pkgch.Client,
) *server.App {
	if producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "epicast.logs",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return server.New(cfg, log, hh, consumer, handlers, jobQueue, scheduler, processor, chClient)
}

func splitHostPort(addr string) (string, int) {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return addr, 6379
	}
	return host, util.ParseIntDefault(portStr, 6379)
}
