package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/config"
	dbRedis "github.com/kailas-cloud/recserve/internal/db/redis"
	logpkg "github.com/kailas-cloud/recserve/internal/logger"
	"github.com/kailas-cloud/recserve/internal/metrics"
	"github.com/kailas-cloud/recserve/internal/repository/reccache"
	chiTransport "github.com/kailas-cloud/recserve/internal/transport/chi"
	healthuc "github.com/kailas-cloud/recserve/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/recserve/internal/usecase/recommend"
	"github.com/kailas-cloud/recserve/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// "recserve inspect" loads and validates the artifacts, logs their summary and exits.
	inspect := len(os.Args) > 1 && os.Args[1] == "inspect"

	logger.Info("Starting recserve",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("inspect", inspect),
	)

	// Register recommendation metrics explicitly (no init())
	metrics.RegisterRecommendMetrics()

	art, err := loadModels(&cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load artifacts", zap.Error(err))
	}
	if inspect {
		logger.Info("Artifacts are consistent", zap.Int("models", len(art.models)))
		return
	}

	ctx := context.Background()

	// Pass nil interfaces (not typed nil pointers) when the cache is disabled.
	var (
		cache  recommenduc.Cache
		pinger healthuc.CachePinger
	)
	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Cache.Addrs,
			Username:    cfg.Cache.Username,
			Password:    cfg.Cache.Password,
			DB:          cfg.Cache.DB,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		// The cache is optional: an unreachable store degrades health but does not block startup.
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Warn("Cache not ready, serving without it until it recovers", zap.Error(err))
		} else {
			logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
		}

		cache = reccache.New(store, reccache.Config{
			TTL:         cfg.Cache.TTL(),
			MaxFailures: cfg.Cache.Breaker.MaxFailures,
			OpenTimeout: time.Duration(cfg.Cache.Breaker.OpenTimeoutSec) * time.Second,
			Namespace:   cfg.Cache.Namespace,
		}, metrics.RecommendCacheTotal, logger.Named("cache"))
		pinger = store
	}

	recSvc, err := recommenduc.New(art.links, cache, logger, art.models...)
	if err != nil {
		logger.Fatal("Failed to create recommendation service", zap.Error(err))
	}
	healthSvc := healthuc.New(recSvc, pinger)

	server := chiTransport.NewServer(recSvc, healthSvc, chiTransport.Limits{
		DefaultTopN: cfg.Scoring.DefaultTopN,
		MaxTopN:     cfg.Scoring.MaxTopN,
	}, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.Any("models", recSvc.Families()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
