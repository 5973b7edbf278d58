// cmd/compair-server/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"compair/internal/api"
	"compair/internal/common/config"
	"compair/internal/common/database"
	commonhttp "compair/internal/common/http"
	"compair/internal/common/logger"
	"compair/internal/common/observability"
	comparisonorchestrator "compair/internal/pipeline/comparison-orchestrator"
	conversationmemory "compair/internal/pipeline/conversation-memory"
	fingerprintcache "compair/internal/pipeline/fingerprint-cache"
	groundingfetcher "compair/internal/pipeline/grounding-fetcher"
	promptcomposer "compair/internal/pipeline/prompt-composer"
	structuredgenerator "compair/internal/pipeline/structured-generator"
	"compair/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting compair server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Store.Backend),
		zap.String("searchProvider", cfg.APIs.Search.Provider),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Store ---
	var closers []func() error
	backend, err := openStore(ctx, cfg, zapLog, &closers)
	if err != nil {
		zapLog.Fatal("store init failed", zap.Error(err))
	}
	defer func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}()
	kv := store.WithPrefix(backend, cfg.Store.KeyPrefix)

	// --- Search ---
	searcher, err := openSearcher(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("search provider init failed", zap.Error(err))
	}

	// --- Pipeline ---
	completer := structuredgenerator.NewOpenAICompleter(structuredgenerator.LoadOpenAIConfig(cfg))
	generator, err := structuredgenerator.New(structuredgenerator.LoadConfig(cfg), completer, log)
	if err != nil {
		zapLog.Fatal("generator init failed", zap.Error(err))
	}

	cache := fingerprintcache.New(fingerprintcache.LoadConfig(cfg), kv, log)
	fetcher := groundingfetcher.New(groundingfetcher.LoadConfig(cfg), searcher, log)
	composer := promptcomposer.New(promptcomposer.LoadConfig(cfg))
	memory := conversationmemory.New(conversationmemory.LoadConfig(cfg), kv, composer, generator, log)
	orchestrator := comparisonorchestrator.New(
		comparisonorchestrator.LoadConfig(cfg),
		cache, fetcher, composer, generator, memory, log,
	)

	zapLog.Info("Comparison pipeline initialized",
		zap.String("model", cfg.APIs.OpenAI.Model),
		zap.String("inflightPolicy", cfg.Pipeline.InflightPolicy),
	)

	// --- Cache sweeper ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.Server.SweepInterval > 0 {
		go runSweeper(sweepCtx, cache, config.GetDuration(cfg.Server.SweepInterval), zapLog)
	}

	// --- HTTP server ---
	mux := http.NewServeMux()
	api.NewHandler(orchestrator, kv, obs, log).Routes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Compair server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, closers *[]func() error) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		var rc *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, rc.Close)
		zapLog.Info("Redis connected successfully")
		return store.NewRedisStore(rc.GetClient()), nil

	case config.StoreBackendPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, pg.Close)
		ps := store.NewPostgresStore(pg.GetDB())
		if err := ps.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		zapLog.Info("PostgreSQL connected successfully")
		return ps, nil

	default:
		zapLog.Warn("Using in-memory store; comparisons and threads are lost on restart")
		return store.NewMemoryStore(), nil
	}
}

func openSearcher(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (groundingfetcher.Searcher, error) {
	switch cfg.APIs.Search.Provider {
	case config.SearchProviderElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.APIs.Search.Index))
		return groundingfetcher.NewElasticsearchSearcher(es.Client, cfg.APIs.Search.Index), nil

	case config.SearchProviderNone:
		zapLog.Warn("Search provider disabled; comparisons run ungrounded")
		return nil, nil

	default:
		braveCfg := groundingfetcher.LoadBraveConfig(cfg)
		return groundingfetcher.NewBraveSearcher(braveCfg, commonhttp.NewClient(braveCfg.Timeout)), nil
	}
}

func runSweeper(ctx context.Context, cache *fingerprintcache.Cache, interval time.Duration, zapLog *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := cache.Sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				zapLog.Warn("Cache sweep failed", zap.Error(err))
				continue
			}
			zapLog.Debug("Cache sweep finished", zap.Int("removed", removed))
		}
	}
}
