// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"movienight-workers/internal/common/camunda"
	"movienight-workers/internal/common/config"
	"movienight-workers/internal/common/database"
	commonhttp "movienight-workers/internal/common/http"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/common/observability"
	"movienight-workers/internal/selection"
	"movienight-workers/internal/tmdb"
	"movienight-workers/pkg/registry"

	cs "movienight-workers/internal/workers/discovery/clear-selection"
	et "movienight-workers/internal/workers/discovery/enrich-title"
	lg "movienight-workers/internal/workers/discovery/list-genres"
	prt "movienight-workers/internal/workers/discovery/pick-random-title"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, zapLog)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Redis response cache ---
	var cache tmdb.Cache
	if cfg.Cache.Enabled {
		rdb, err := connectRedis(ctx, cfg.Database.Redis, zapLog)
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		if cfg.Cache.PurgeOnStart {
			n, err := rdb.PurgePrefix(ctx, tmdb.CacheKeyPrefix)
			if err != nil {
				zapLog.Warn("metadata cache purge failed", zap.Error(err))
			} else {
				zapLog.Info("metadata cache purged", zap.Int("keys", n))
			}
		}
		cache = tmdb.NewRedisCache(rdb.GetClient())
		zapLog.Info("redis connected", zap.String("address", cfg.Database.Redis.Address))
	} else {
		zapLog.Info("metadata cache disabled")
	}

	// --- Metadata client and selection engine ---
	httpClient := commonhttp.NewClientWithOptions(commonhttp.Options{
		Timeout:       config.GetDuration(cfg.TMDB.Timeout),
		RatePerSecond: cfg.TMDB.RatePerSecond,
		Burst:         cfg.TMDB.Burst,
		MaxRetries:    cfg.TMDB.MaxRetries,
		Observer:      metrics.ObserveMetadataRequest,
	})
	catalog := tmdb.NewClient(httpClient, cache, tmdb.Options{
		BaseURL:     cfg.TMDB.BaseURL,
		APIKey:      cfg.TMDB.APIKey,
		Language:    cfg.TMDB.Language,
		GenreTTL:    cfg.Cache.GenreTTL,
		DiscoverTTL: cfg.Cache.DiscoverTTL,
	}, log)
	engine := selection.NewEngine(catalog, categoryDefaults(cfg), log)
	sessions := selection.NewSessions(engine)
	go sessions.RunEviction(ctx, sweepInterval(cfg.Selection.SessionIdleTTL), cfg.Selection.SessionIdleTTL, func(n int) {
		zapLog.Debug("idle selection slots evicted", zap.Int("evicted", n), zap.Int("remaining", sessions.Len()))
	})

	reg, err := registry.LoadOrDefault(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, camunda.OptionsFromConfig(cfg.Camunda), zapLog)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := prt.LoadConfig(cfg); wcfg.Enabled && runnable(zapLog, reg, prt.TaskType) {
		mustValidate(zapLog, prt.TaskType, wcfg.Validate())
		handler := prt.NewHandler(wcfg, sessions, reg, obs, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), prt.TaskType,
			camunda.WorkerOptions{MaxJobsActive: wcfg.MaxJobsActive, Timeout: wcfg.Timeout}, handler, zapLog))
	}

	if wcfg := et.LoadConfig(cfg); wcfg.Enabled && runnable(zapLog, reg, et.TaskType) {
		mustValidate(zapLog, et.TaskType, wcfg.Validate())
		handler := et.NewHandler(wcfg, engine, reg, obs, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), et.TaskType,
			camunda.WorkerOptions{MaxJobsActive: wcfg.MaxJobsActive, Timeout: wcfg.Timeout}, handler, zapLog))
	}

	if wcfg := lg.LoadConfig(cfg); wcfg.Enabled && runnable(zapLog, reg, lg.TaskType) {
		mustValidate(zapLog, lg.TaskType, wcfg.Validate())
		handler := lg.NewHandler(wcfg, catalog, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), lg.TaskType,
			camunda.WorkerOptions{MaxJobsActive: wcfg.MaxJobsActive, Timeout: wcfg.Timeout}, handler, zapLog))
	}

	if wcfg := cs.LoadConfig(cfg); wcfg.Enabled && runnable(zapLog, reg, cs.TaskType) {
		mustValidate(zapLog, cs.TaskType, wcfg.Validate())
		handler := cs.NewHandler(wcfg, sessions, reg, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), cs.TaskType,
			camunda.WorkerOptions{MaxJobsActive: wcfg.MaxJobsActive, Timeout: wcfg.Timeout}, handler, zapLog))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("shutdown signal received, stopping workers")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("health/metrics server shutdown failed", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

// sweepInterval checks for idle slots four times per TTL, at most once a second.
func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, zapLog *zap.Logger) (*database.RedisClient, error) {
	rdb, err := database.NewRedis(cfg)
	if err != nil {
		return nil, err
	}
	err = retry.Do(
		func() error { return rdb.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(15*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			zapLog.Warn("redis connection failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// categoryDefaults turns selection.<category> config blocks into engine defaults.
func categoryDefaults(cfg *config.Config) map[selection.Category]selection.Config {
	convert := func(c config.CategoryConfig) selection.Config {
		return selection.Config{
			PagesToSearch:     c.PagesToSearch,
			PageRange:         c.PageRange,
			PriorStrength:     c.PriorStrength,
			PriorMean:         c.PriorMean,
			MinWeightedScore:  c.MinWeightedScore,
			MinVoteCount:      c.MinVoteCount,
			MinVoteAverage:    c.MinVoteAverage,
			MaxAttempts:       c.MaxAttempts,
			MaxProviderChecks: c.MaxProviderChecks,
			ExcludedGenres:    c.ExcludedGenres,
			SortBy:            c.SortBy,
			Region:            cfg.TMDB.Region,
		}
	}
	return map[selection.Category]selection.Config{
		selection.CategoryMovie:  convert(cfg.Selection.Movie),
		selection.CategorySeries: convert(cfg.Selection.Series),
		selection.CategoryAnime:  convert(cfg.Selection.Anime),
	}
}

// runnable skips workers the registry marks as planned or in progress.
func runnable(zapLog *zap.Logger, reg *registry.ActivityRegistry, taskType string) bool {
	if reg.Runnable(taskType) {
		return true
	}
	zapLog.Warn("worker not started, activity is not marked completed", zap.String("taskType", taskType))
	return false
}

func mustValidate(zapLog *zap.Logger, taskType string, err error) {
	if err != nil {
		zapLog.Fatal("invalid worker configuration", zap.String("taskType", taskType), zap.Error(err))
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
