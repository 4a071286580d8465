package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/meetingcal/internal/calendar"
	"github.com/your-org/meetingcal/internal/legistar"
	"github.com/your-org/meetingcal/pkg/config"
	"github.com/your-org/meetingcal/pkg/kafka"
	"github.com/your-org/meetingcal/pkg/kvstore"
	"github.com/your-org/meetingcal/pkg/logger"
	"github.com/your-org/meetingcal/pkg/storage/objectstore"
	"github.com/your-org/meetingcal/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.LogEncoding)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		Attributes:     tracing.ParseAttributes(cfg.Tracing.ResourceAttr),
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		logr.Fatal("load timezone", zap.String("timezone", cfg.Calendar.Timezone), zap.Error(err))
	}

	sources, err := calendar.LookupSources(cfg.Calendar.Sources)
	if err != nil {
		logr.Fatal("resolve sources", zap.Error(err))
	}

	tiers, closeTiers, err := buildTiers(cfg)
	if err != nil {
		logr.Fatal("init cache tiers", zap.Error(err))
	}
	defer closeTiers()
	store := kvstore.New(logr.Named("kvstore"), tiers...)

	client := legistar.NewClient(legistar.Config{
		BaseURL:        cfg.Legistar.BaseURL,
		Endpoints:      calendar.Endpoints(sources),
		Top:            cfg.Legistar.Top,
		MaxAttempts:    cfg.Legistar.MaxAttempts,
		InitialBackoff: cfg.Legistar.InitialBackoff,
		Location:       loc,
		HTTPClient:     &http.Client{Timeout: cfg.Legistar.RequestTimeout},
		Logger:         logr.Named("legistar"),
	})

	var publisher calendar.Publisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.SyncTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
			RequiredAcks: kafkago.RequireAll,
			MaxAttempts:  cfg.Kafka.Retries,
			Async:        true,
		})
		publisher = calendar.KafkaPublisher{Producer: producer}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	aggregator, err := calendar.NewAggregator(calendar.Params{
		Sources:    sources,
		Client:     client,
		Cache:      store,
		Normalizer: calendar.NewNormalizer(loc),
		Publisher:  publisher,
		Metrics:    calendar.NewMetrics(registry),
		Logger:     logr.Named("calendar"),
		Location:   loc,
		TTL:        cfg.Cache.TTL,
		StaleTTL:   cfg.Cache.StaleTTL,
		Horizon:    cfg.Calendar.Horizon,
		CacheKey:   cfg.Cache.Key,
	})
	if err != nil {
		logr.Fatal("init aggregator", zap.Error(err))
	}

	var scheduler *calendar.Scheduler
	if spec := strings.TrimSpace(cfg.Calendar.RefreshSchedule); spec != "" {
		scheduler, err = calendar.NewScheduler(ctx, spec, aggregator, cfg.HTTP.RequestTimeout, logr.Named("scheduler"))
		if err != nil {
			logr.Fatal("init refresh scheduler", zap.String("schedule", spec), zap.Error(err))
		}
		go scheduler.RunOnce(ctx)
		scheduler.Start()
	}

	handler := calendar.NewHTTPHandler(aggregator, logr.Named("http"), cfg.HTTP.RequestTimeout)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logr.Error("metrics server shutdown failed", zap.Error(err))
		}
		if producer != nil {
			if err := producer.Close(shutdownCtx); err != nil {
				logr.Error("kafka producer shutdown failed", zap.Error(err))
			}
		}
	}()

	logr.Info("calendar service starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Strings("sources", cfg.Calendar.Sources),
		zap.Strings("cache_tiers", store.Tiers()),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

// buildTiers returns the cache tiers in preference order: ephemeral first,
// durable second.
func buildTiers(cfg *config.Config) ([]kvstore.Tier, func(), error) {
	var tiers []kvstore.Tier
	var closers []func() error

	switch strings.ToLower(cfg.Cache.EphemeralTier) {
	case "memory":
		tiers = append(tiers, kvstore.NewMemoryTier())
	case "redis":
		rt := kvstore.NewRedisTier(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Cache.StaleTTL)
		tiers = append(tiers, rt)
		closers = append(closers, rt.Close)
	case "none", "":
	default:
		return nil, nil, fmt.Errorf("unsupported ephemeral cache tier: %s", cfg.Cache.EphemeralTier)
	}

	switch strings.ToLower(cfg.Cache.DurableTier) {
	case "objectstore":
		client, err := objectstore.New(objectstore.Config{
			Provider:  cfg.Storage.Provider,
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			Prefix:    cfg.Storage.Prefix,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		tiers = append(tiers, kvstore.NewObjectTier(client))
		closers = append(closers, client.Close)
	case "memory":
		tiers = append(tiers, kvstore.NewMemoryTier())
	case "none", "":
	default:
		return nil, nil, fmt.Errorf("unsupported durable cache tier: %s", cfg.Cache.DurableTier)
	}

	if len(tiers) == 0 {
		return nil, nil, fmt.Errorf("no cache tiers configured")
	}
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	return tiers, closeAll, nil
}
