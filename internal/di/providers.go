package di

import (
	"context"
	"fmt"
	"time"

	"BarScan/internal/domain/repository"
	"BarScan/internal/handler/api"
	internalrepo "BarScan/internal/repository"
	"BarScan/internal/service/calendar"
	"BarScan/internal/service/massdata"
	"BarScan/internal/usecase"
	"BarScan/pkg/cache"
	pkgch "BarScan/pkg/clickhouse"
	"BarScan/pkg/config"
	xhttp "BarScan/pkg/http"
	pkgkafka "BarScan/pkg/kafka"
	"BarScan/pkg/logger"
	"BarScan/pkg/metrics"
	"BarScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCalendar creates the trading calendar.
func ProvideCalendar() repository.Calendar {
	return calendar.New()
}

// ProvideBarSource creates the grouped-daily source, wrapped in a
// session cache when enabled: layered memory+redis, since grouped
// payloads are immutable once a session closes.
func ProvideBarSource(cfg *config.Config, log *logger.Logger) (repository.BarSource, error) {
	src := massdata.New(cfg.MassData.BaseURL, cfg.MassData.APIKey, cfg.MassData.Timeout)

	if !cfg.Cache.Enabled {
		return src, nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	layered := cache.NewLayeredCache(redisCache, cache.WithMemoryMaxSize(64))
	return internalrepo.NewCachedBarSource(src, layered, cfg.Cache.TTL, log), nil
}

// ProvideFetcher creates the bounded bulk fetcher.
func ProvideFetcher(src repository.BarSource, m repository.Metrics, log *logger.Logger, cfg *config.Config) *usecase.BulkFetcher {
	return usecase.NewBulkFetcher(src, m, log, usecase.FetchConfig{
		Workers:      cfg.MassData.FetchWorkers,
		Retries:      cfg.MassData.Retries,
		Timeout:      cfg.MassData.Timeout,
		RateLimitRPS: cfg.MassData.RateLimitRPS,
	})
}

// ProvideSignalStore creates the ClickHouse sink when configured; a nil
// store means the scan result is returned but not persisted.
func ProvideSignalStore(cfg *config.Config, log *logger.Logger) (repository.SignalStore, error) {
	if cfg.Sink.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Sink.ClickHouse.Host),
		pkgch.WithPort(cfg.Sink.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Sink.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Sink.ClickHouse.User, cfg.Sink.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.Sink.ClickHouse.DialTimeout, cfg.Sink.ClickHouse.ReadTimeout, cfg.Sink.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewClickHouseSignalStore(client, log)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideSignalPublisher creates the Kafka sink when configured.
func ProvideSignalPublisher(cfg *config.Config, log *logger.Logger) (repository.SignalPublisher, error) {
	if cfg.Sink.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Sink.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Sink.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Sink.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Sink.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Sink.Kafka.BatchSize),
		pkgkafka.WithTimeouts(cfg.Sink.Kafka.WriteTimeout, cfg.Sink.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Sink.Kafka.Topic, log), nil
}

// ProvideScanner creates the pipeline orchestrator.
func ProvideScanner(
	cal repository.Calendar,
	fetcher *usecase.BulkFetcher,
	store repository.SignalStore,
	publisher repository.SignalPublisher,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Scanner {
	return usecase.NewScanner(cal, fetcher, store, publisher, m, log, cfg.Compute.Workers)
}

// ProvideScanHandler creates the HTTP handler.
func ProvideScanHandler(scanner *usecase.Scanner, log *logger.Logger) xhttp.Handler {
	return api.NewScanHandler(scanner, log)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	scanner *usecase.Scanner,
	handler xhttp.Handler,
	store repository.SignalStore,
	publisher repository.SignalPublisher,
) *server.App {
	return server.New(cfg, log, scanner, handler, store, publisher)
}
