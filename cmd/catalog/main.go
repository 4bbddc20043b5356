package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinemahub/catalog-service/internal/analytics"
	"github.com/cinemahub/catalog-service/internal/catalog/cache"
	"github.com/cinemahub/catalog-service/internal/catalog/enrich"
	"github.com/cinemahub/catalog-service/internal/catalog/handler"
	"github.com/cinemahub/catalog-service/internal/catalog/search"
	"github.com/cinemahub/catalog-service/internal/catalog/service"
	"github.com/cinemahub/catalog-service/pkg/config"
	"github.com/cinemahub/catalog-service/pkg/health"
	"github.com/cinemahub/catalog-service/pkg/kafka"
	"github.com/cinemahub/catalog-service/pkg/logger"
	"github.com/cinemahub/catalog-service/pkg/metrics"
	"github.com/cinemahub/catalog-service/pkg/middleware"
	pkgredis "github.com/cinemahub/catalog-service/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting catalog service", "port", cfg.Server.Port)

	gateway, err := search.New(cfg.Elastic)
	if err != nil {
		slog.Error("failed to create search gateway", "error", err)
		os.Exit(1)
	}
	slog.Info("search gateway initialized", "addresses", cfg.Elastic.Addresses)

	// The cache is fail-open end to end: if Redis is down at startup the
	// service still serves, every lookup is a miss.
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result cache degraded to pass-through", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}
	var store cache.Store
	if redisClient != nil {
		store = redisClient
	} else {
		store = unavailableStore{}
	}
	resultCache := cache.New(store, cfg.Redis.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metrics.Handler(),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
		defer metricsServer.Close()
		slog.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	var collector *analytics.Collector
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.QueryEventsTopic)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.QueryEventsTopic)
	}

	resolver := enrich.New(gateway, service.GenresIndex, cfg.Catalog, m)
	films := service.NewFilmService(resultCache, gateway, resolver, m, collector)
	genres := service.NewGenreService(resultCache, gateway, m, collector)
	persons := service.NewPersonService(resultCache, gateway, m, collector)

	checker := health.NewChecker()
	checker.Critical("elasticsearch", gateway.Ping)
	checker.Degradable("redis", func(ctx context.Context) error {
		if redisClient == nil {
			return errors.New("not connected")
		}
		return redisClient.Ping(ctx)
	})

	h := handler.New(films, genres, persons, cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("catalog service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("catalog service stopped")
}

// unavailableStore keeps the cache in permanent fail-open mode when Redis
// could not be reached at startup.
type unavailableStore struct{}

func (unavailableStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (unavailableStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
