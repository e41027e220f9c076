// cmd/template-workers/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"template-resolver/internal/common/camunda"
	"template-resolver/internal/common/config"
	"template-resolver/internal/common/database"
	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/common/observability"
	"template-resolver/internal/defaults"
	"template-resolver/internal/organization"
	"template-resolver/internal/store/cache"
	"template-resolver/internal/store/postgres"
	"template-resolver/internal/templates"
	"template-resolver/pkg/registry"

	dt "template-resolver/internal/workers/templates/delete-template"
	ltt "template-resolver/internal/workers/templates/list-template-types"
	lt "template-resolver/internal/workers/templates/list-templates"
	rt "template-resolver/internal/workers/templates/resolve-template"
	ut "template-resolver/internal/workers/templates/upsert-template"
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
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting template workers...",
		zap.String("environment", cfg.App.Environment),
		zap.Int("minDepth", cfg.Hierarchy.MinDepth()),
		zap.String("mergeKey", cfg.Hierarchy.MergeKey),
	)

	ctx := context.Background()

	spanExporter, err := observability.NewSpanExporter(ctx, cfg.Tracing)
	if err != nil {
		zapLog.Fatal("trace exporter setup failed", zap.Error(err))
	}
	obs := observability.New(cfg.App.Name, observability.Options(spanExporter, cfg.Tracing)...)
	defer obs.Shutdown()
	if spanExporter != nil {
		zapLog.Info("OTLP tracing enabled",
			zap.String("endpoint", cfg.Tracing.Endpoint),
			zap.Float64("sampleRatio", cfg.Tracing.SampleRatio),
		)
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	pgStore := postgres.New(pg.DB, log)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("template schema setup failed", zap.Error(err))
	}

	// --- Template persistence, optionally behind Redis ---
	var store templates.Store = pgStore
	if cfg.Cache.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.ConnectRedis(ctx, cfg.Database.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		store = cache.New(pgStore, redis.Client, ttl, cfg.Cache.Prefix, log)
		zapLog.Info("Redis template cache enabled", zap.Duration("ttl", ttl))
	}

	// --- Resolver ---
	catalog, err := defaults.LoadFile(cfg.Defaults.CatalogPath)
	if err != nil {
		zapLog.Fatal("default template catalog failed to load", zap.Error(err))
	}

	mergeKey, err := templates.ParseMergeKey(cfg.Hierarchy.MergeKey)
	if err != nil {
		zapLog.Fatal("invalid merge key", zap.Error(err))
	}

	directory := organization.NewDirectory(pg.DB, log)
	walker := templates.NewWalker(directory, directory, cfg.Hierarchy.MinDepth(), log)
	resolver := templates.NewResolver(store, catalog, walker, log,
		templates.WithMergeKey(mergeKey),
		templates.WithTracer(obs.Tracer()),
	)

	// --- Activity registry ---
	reg, err := loadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry failed to load", zap.Error(err))
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Register workers ---
	errHandler := errors.NewErrorHandler(log)
	handlers := []struct {
		taskType string
		handler  camunda.JobHandler
	}{
		{rt.TaskType, rt.NewHandler(rt.LoadConfig(config.GetWorkerConfig(cfg, rt.TaskType)), resolver, reg, errHandler, log)},
		{lt.TaskType, lt.NewHandler(lt.LoadConfig(config.GetWorkerConfig(cfg, lt.TaskType)), resolver, reg, errHandler, log)},
		{ltt.TaskType, ltt.NewHandler(ltt.LoadConfig(config.GetWorkerConfig(cfg, ltt.TaskType)), resolver, reg, errHandler, log)},
		{ut.TaskType, ut.NewHandler(ut.LoadConfig(config.GetWorkerConfig(cfg, ut.TaskType)), resolver, reg, errHandler, log)},
		{dt.TaskType, dt.NewHandler(dt.LoadConfig(config.GetWorkerConfig(cfg, dt.TaskType)), resolver, reg, errHandler, log)},
	}

	var workers []*camunda.CamundaWorker
	for _, h := range handlers {
		if !config.IsWorkerEnabled(cfg, h.taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", h.taskType))
			continue
		}
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(), h.taskType, config.GetWorkerConfig(cfg, h.taskType), h.handler, obs, zapLog,
		))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := pg.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		zapLog.Info("stopping worker", zap.String("taskType", w.TaskType()))
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Template workers stopped gracefully")
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
