// Package main is the entry point for the shademap API server.
//
// It loads the configuration, wires the series provider (simulator, optional
// live archive client, optional Redis cache), the pipeline processor, the
// region registry, and the HTTP server, then listens until SIGINT/SIGTERM
// and shuts down gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/redis/go-redis/v9"

	"shademap/internal/api"
	"shademap/internal/config"
	"shademap/internal/metrics"
	"shademap/internal/pipeline"
	"shademap/internal/registry"
	"shademap/internal/series"
	"shademap/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("shademap API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"prefer_live", cfg.Series.PreferLive,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Series provider: simulator, plus optional live archive client and
	// optional Redis cache.
	var live *series.Client
	if cfg.Series.PreferLive {
		live = series.NewClient(cfg.Series.OpenMeteoURL, &http.Client{Timeout: cfg.Series.UpstreamTimeout})
	}

	var cache *series.Cache
	if cfg.Series.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Series.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Cache is an optimization; start without it rather than fail.
			logger.Warn("redis unreachable, running without series cache", "error", err)
		} else {
			cache = series.NewCache(rdb, cfg.Series.CacheTTL, logger)
			logger.Info("series cache enabled", "ttl", cfg.Series.CacheTTL)
		}
	}

	provider := series.NewProvider(series.ProviderConfig{
		Simulator:  series.NewSimulator(cfg.Series.SimulationSeed),
		Live:       live,
		Cache:      cache,
		PreferLive: cfg.Series.PreferLive,
		Logger:     logger,
	})

	var publisher types.MetricPublisher = metrics.Noop{}
	if cfg.Observability.EnableMetrics {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading AWS SDK config: %w", err)
		}
		publisher = metrics.NewPublisher(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace)
		logger.Info("cloudwatch metrics enabled", "namespace", cfg.Observability.MetricNamespace)
	}

	processor := pipeline.New(pipeline.Config{
		Provider:         provider,
		Logger:           logger,
		ConcurrencyLimit: cfg.Pipeline.BatchConcurrency,
	})

	reg := registry.New(registry.Config{
		Processor: processor,
		Metrics:   publisher,
		Logger:    logger,
	})

	srv := api.NewServer(reg, registry.NewDrawingSession(), logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}

// newLogger builds the process-wide JSON logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
