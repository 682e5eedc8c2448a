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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lodgement-workers/internal/common/camunda"
	"lodgement-workers/internal/common/config"
	"lodgement-workers/internal/common/database"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/common/observability"
	"lodgement-workers/internal/engine/allocation"
	"lodgement-workers/internal/store"
	"lodgement-workers/pkg/registry"

	// Scoring workers
	esf "lodgement-workers/internal/workers/scoring/evaluate-scoring-form"
	pa "lodgement-workers/internal/workers/scoring/predict-availability"
	ra "lodgement-workers/internal/workers/scoring/rank-applications"

	// Application lifecycle workers
	ts "lodgement-workers/internal/workers/application/transition-status"

	// Allocation workers
	na "lodgement-workers/internal/workers/allocation/notify-assignment"
	ral "lodgement-workers/internal/workers/allocation/run-allocation"

	// Data access workers
	qp "lodgement-workers/internal/workers/data-access/query-postgresql"
	sl "lodgement-workers/internal/workers/data-access/search-lodgements"
)

// observedHandler records per-job counts and latency through the OpenTelemetry
// meter in addition to the Prometheus series the worker wrapper keeps.
type observedHandler struct {
	inner camunda.JobHandler
	obs   *observability.Observability
}

func (h *observedHandler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.inner.Handle(client, job)

	ctx := context.Background()
	h.obs.RecordJobProcessed(ctx, job.Type)
	h.obs.RecordJobDuration(ctx, time.Since(start), job.Type)
}

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

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load activity registry (optional) ---
	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		zapLog.Warn("activity registry not loaded", zap.String("path", cfg.Registry.Path), zap.Error(err))
	} else if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	} else {
		zapLog.Info("activity registry loaded", zap.Int("activities", len(reg.Activities)))
	}

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
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
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Build the domain layer ---
	pgStore := store.NewPostgresStore(pg.DB)
	rankCache := store.NewRankCache(redis.Client, time.Duration(cfg.Scoring.RankCacheTTL)*time.Second)

	policy := allocation.Policy{
		AssignmentLeadDays:  cfg.Allocation.LeadDays,
		AssignmentTermYears: cfg.Allocation.TermYears,
		FreeHorizonDays:     cfg.Allocation.HorizonDays,
		NewTenureYears:      cfg.Allocation.NewTenureYears,
		NewShare:            cfg.Allocation.NewShare,
	}
	engine := allocation.NewEngine(pgStore, policy, log)

	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		w := camunda.NewWorker(zeebeClient, taskType, wcfg.MaxJobsActive, &observedHandler{inner: handler, obs: obs}, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	// --- Scoring Workers ---
	register(esf.TaskType, esf.NewHandler(
		&esf.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, esf.TaskType).Timeout)},
		pgStore, log,
	))

	register(ra.TaskType, ra.NewHandler(
		&ra.Config{
			Timeout:  config.GetDuration(config.GetWorkerConfig(cfg, ra.TaskType).Timeout),
			CacheTTL: time.Duration(cfg.Scoring.RankCacheTTL) * time.Second,
		},
		pgStore, rankCache, log,
	))

	register(pa.TaskType, pa.NewHandler(
		&pa.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, pa.TaskType).Timeout)},
		pgStore, log,
	))

	// --- Application Lifecycle Workers ---
	register(ts.TaskType, ts.NewHandler(
		&ts.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, ts.TaskType).Timeout)},
		pgStore, rankCache, log,
	))

	// --- Allocation Workers ---
	register(ral.TaskType, ral.NewHandler(
		&ral.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, ral.TaskType).Timeout)},
		engine, rankCache, log,
	))

	naHandler, err := na.NewHandler(
		&na.Config{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			FromEmail:    cfg.Notifications.Email.FromEmail,
			AWSRegion:    cfg.Notifications.AWS.Region,
			Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, na.TaskType).Timeout),
		},
		pgStore, pg.DB, log,
	)
	if err != nil {
		zapLog.Fatal("failed to create notify-assignment handler", zap.Error(err))
	}
	register(na.TaskType, naHandler)

	// --- Data Access Workers ---
	register(qp.TaskType, qp.NewHandler(
		&qp.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, qp.TaskType).Timeout)},
		pg.DB, log,
	))

	register(sl.TaskType, sl.NewHandler(
		&sl.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, sl.TaskType).Timeout)},
		esClient.Client, log,
	))

	zapLog.Info("All workers registered successfully", zap.Int("workers", len(workers)))

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
			status := "ready"
			code := http.StatusOK
			if err := pg.Ping(r.Context()); err != nil {
				status = "not-ready"
				code = http.StatusServiceUnavailable
			} else if err := camundaClient.HealthCheck(r.Context()); err != nil {
				status = "not-ready"
				code = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
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
