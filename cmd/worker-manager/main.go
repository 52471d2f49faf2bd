// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"load-analytics-engine/internal/common/camunda"
	"load-analytics-engine/internal/common/config"
	"load-analytics-engine/internal/common/database"
	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/common/observability"

	// Access Workers (1)
	va "load-analytics-engine/internal/workers/access/validate-access"

	// Analytics Workers (3)
	cle "load-analytics-engine/internal/workers/analytics/calculate-load-economics"
	fs "load-analytics-engine/internal/workers/analytics/fleet-summary"
	ra "load-analytics-engine/internal/workers/analytics/route-analysis"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- START: Register ALL 4 Workers ---
	var workers []*camunda.CamundaWorker

	// --- 1. Analytics Workers (3) ---
	if cfg.Workers[cle.TaskType].Enabled {
		handler := cle.NewHandler(
			&cle.Config{
				Timeout: time.Duration(cfg.Workers[cle.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		workers = append(workers, startWorker(zeebeClient, cle.TaskType, cfg.Workers[cle.TaskType], handler, zapLog))
	}

	if cfg.Workers[fs.TaskType].Enabled {
		handler := fs.NewHandler(
			&fs.Config{
				Timeout:  time.Duration(cfg.Workers[fs.TaskType].Timeout) * time.Millisecond,
				PageSize: cfg.Engine.PageSize,
			},
			log,
		)
		workers = append(workers, startWorker(zeebeClient, fs.TaskType, cfg.Workers[fs.TaskType], handler, zapLog))
	}

	if cfg.Workers[ra.TaskType].Enabled {
		handler := ra.NewHandler(
			&ra.Config{
				Timeout:         time.Duration(cfg.Workers[ra.TaskType].Timeout) * time.Millisecond,
				GeocodeBaseURL:  cfg.Geocoding.BaseURL,
				GeocodeAPIKey:   cfg.Geocoding.APIKey,
				GeocodeTimeout:  time.Duration(cfg.Geocoding.Timeout) * time.Millisecond,
				GeocodeCacheTTL: time.Duration(cfg.Geocoding.CacheTTL) * time.Second,
			},
			redis.Client, log,
		)
		workers = append(workers, startWorker(zeebeClient, ra.TaskType, cfg.Workers[ra.TaskType], handler, zapLog))
	}

	// --- 2. Access Workers (1) ---
	if cfg.Workers[va.TaskType].Enabled {
		handler := va.NewHandler(
			&va.Config{
				Timeout:   time.Duration(cfg.Workers[va.TaskType].Timeout) * time.Millisecond,
				TrialDays: cfg.Engine.TrialDays,
				CacheTTL:  time.Duration(cfg.Engine.VerdictCacheTTL) * time.Second,
			},
			pg.DB, redis.Client, log,
		)
		workers = append(workers, startWorker(zeebeClient, va.TaskType, cfg.Workers[va.TaskType], handler, zapLog))
	}

	zapLog.Info("All workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
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
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, log *zap.Logger) *camunda.CamundaWorker {
	w := camunda.NewWorker(client, taskType, wcfg.MaxJobsActive, handler, log)
	w.Start()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}
