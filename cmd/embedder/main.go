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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/user/embed-images/internal/api"
	"github.com/user/embed-images/internal/cache"
	"github.com/user/embed-images/internal/collector"
	"github.com/user/embed-images/internal/config"
	"github.com/user/embed-images/internal/monitoring"
	"github.com/user/embed-images/internal/proxy"
	"github.com/user/embed-images/internal/resolver"
	"github.com/user/embed-images/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Initialize cache backend
	store, closeStore, err := newCache(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize cache", zap.String("backend", cfg.CacheBackend), zap.Error(err))
	}
	defer closeStore()
	log.Info("cache initialized", zap.String("backend", cfg.CacheBackend))

	// Initialize monitoring, proxies
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)
	proxyManager, err := proxy.NewManager(cfg.ProxyList(), cfg.UserAgentList())
	if err != nil {
		log.Fatal("invalid proxy configuration", zap.Error(err))
	}

	// Initialize core pipeline
	res := resolver.New(
		resolver.WithCache(store),
		resolver.WithRoots(cfg.Roots()...),
		resolver.WithTimeout(cfg.Timeout()),
		resolver.WithProxyManager(proxyManager),
		resolver.WithLogger(log.Named("resolver")),
		resolver.WithMetrics(metrics),
	)
	policy := collector.Absorb
	if cfg.Strict {
		policy = collector.Strict
	}
	col := collector.New(res,
		collector.WithRaisePolicy(policy),
		collector.WithConcurrency(cfg.Concurrency),
		collector.WithLogger(log.Named("collector")),
		collector.WithMetrics(metrics),
	)

	// Initialize API Server
	server := api.NewServer(cfg, col, store, metrics, reg, log)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("port", cfg.ServerPort), zap.Strings("roots", cfg.Roots()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}

// newCache builds the configured backend. A nil cache disables caching.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	noop := func() {}
	switch cfg.CacheBackend {
	case config.BackendNone:
		return nil, noop, nil
	case config.BackendRedis:
		rs := cache.NewRedisFromAddr(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, noop, fmt.Errorf("unable to connect to redis: %w", err)
		}
		return rs, func() { _ = rs.Close() }, nil
	case config.BackendPostgres:
		pg, err := cache.NewPostgresFromURL(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, noop, fmt.Errorf("unable to create cache table: %w", err)
		}
		return pg, pg.Close, nil
	default:
		dir, err := cache.NewDir(cfg.CacheDir)
		if err != nil {
			return nil, noop, err
		}
		return dir, noop, nil
	}
}
