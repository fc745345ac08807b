package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adv-service/internal/config"
	"adv-service/internal/delivery/middleware"
	"adv-service/internal/delivery/router"
	"adv-service/internal/infrastructure/cache"
	"adv-service/internal/infrastructure/metrics"
	"adv-service/internal/repository"
	"adv-service/internal/service"
	"adv-service/pkg/database"
	"adv-service/pkg/logger"

	"github.com/go-chi/chi/v5"
	redisClient "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	cfg := config.MustLoadConfig()

	loggers, err := setupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	loggers.InfoLogger.Info().Msg("Logger initialized")

	dialect, err := repository.DialectFor(cfg.Database.Driver)
	if err != nil {
		loggers.ErrorLogger.Fatal().Err(err).Msg("Unsupported database driver")
	}

	db, cleanupDB := setupDatabase(cfg, loggers)
	defer cleanupDB()

	advCache, cleanupCache := setupCache(cfg, loggers)
	defer cleanupCache()

	tracerProvider := setupTracer(cfg, loggers)
	if tracerProvider != nil {
		defer shutdownTracer(tracerProvider, loggers)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	handlerMetrics := metrics.NewHandlerMetrics(registry)
	serviceMetrics := metrics.NewServiceMetrics(registry)
	repositoryMetrics := metrics.NewRepositoryMetrics(registry)
	loggers.InfoLogger.Info().Msg("Prometheus metrics initialized")

	advRepo := repository.NewSQLAdvertisementRepository(db, dialect, advCache, repositoryMetrics, loggers)
	advService := service.NewAdvertisementService(advRepo, serviceMetrics)
	loggers.InfoLogger.Info().Msg("Service and repository layers initialized")

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	r := chi.NewRouter()
	router.SetupRoutes(r, router.Dependencies{
		Service:     advService,
		DB:          db,
		Loggers:     loggers,
		Metrics:     handlerMetrics,
		RateLimiter: limiter,
	})
	loggers.InfoLogger.Info().Msg("Router and routes initialized")

	server := startServer(cfg, r, loggers)

	waitForShutdown(server, loggers)
}

func setupLogger(cfg *config.Config) (*logger.Loggers, error) {
	if cfg.Logger.File == "" {
		return logger.SetupLogger(cfg.Logger.Level)
	}

	return logger.SetupFileLogger(cfg.Logger.Level, logger.FileConfig{
		Path:       cfg.Logger.File,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
	})
}

func setupDatabase(cfg *config.Config, loggers *logger.Loggers) (*sql.DB, func()) {
	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.ConnectionString(), database.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		loggers.ErrorLogger.Error().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	loggers.InfoLogger.Info().Str("driver", cfg.Database.Driver).Msg("Connected to database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.EnsureSchema(ctx, db, cfg.Database.Driver); err != nil {
		loggers.ErrorLogger.Error().Err(err).Msg("Failed to create schema")
		db.Close()
		os.Exit(1)
	}
	loggers.InfoLogger.Info().Msg("Database schema ready")

	cleanup := func() {
		if err := db.Close(); err != nil {
			loggers.ErrorLogger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return db, cleanup
}

func setupCache(cfg *config.Config, loggers *logger.Loggers) (cache.Cache, func()) {
	if !cfg.Redis.Enabled {
		loggers.InfoLogger.Info().Msg("Redis cache disabled")
		return cache.NewNoopCache(), func() {}
	}

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		loggers.ErrorLogger.Error().Err(err).Msg("Failed to connect to Redis")
		os.Exit(1)
	}
	loggers.InfoLogger.Info().Msg("Connected to Redis")

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			loggers.ErrorLogger.Error().Err(err).Msg("Failed to close Redis client")
		}
	}

	return cache.NewRedisCache(rdb), cleanup
}

func setupTracer(cfg *config.Config, loggers *logger.Loggers) *sdktrace.TracerProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}

	tracerProvider, err := metrics.InitTracer(
		cfg.Tracing.ServiceName,
		cfg.Tracing.Environment,
		cfg.Tracing.Version,
		cfg.Tracing.Endpoint,
	)
	if err != nil {
		loggers.ErrorLogger.Error().Err(err).Msg("Failed to initialize tracer")
		os.Exit(1)
	}
	loggers.InfoLogger.Info().Msg("OpenTelemetry Tracer initialized")
	return tracerProvider
}

func shutdownTracer(tp *sdktrace.TracerProvider, loggers *logger.Loggers) {
	if err := tp.Shutdown(context.Background()); err != nil {
		loggers.ErrorLogger.Error().Err(err).Msg("Failed to shut down tracer provider")
	}
}

func startServer(cfg *config.Config, handler http.Handler, loggers *logger.Loggers) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	}

	go func() {
		loggers.InfoLogger.Info().Int("port", cfg.HTTP.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggers.ErrorLogger.Error().Err(err).Msg("Failed to start server")
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(server *http.Server, loggers *logger.Loggers) {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	<-shutdownCh
	loggers.InfoLogger.Info().Msg("Shutdown signal received, shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		loggers.ErrorLogger.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		loggers.InfoLogger.Info().Msg("Server shutdown gracefully")
	}
}
