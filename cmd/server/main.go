package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster-service/internal/domain/repository"
	"roster-service/internal/infrastructure/config"
	"roster-service/internal/infrastructure/fetcher"
	"roster-service/internal/infrastructure/persistence"
	"roster-service/internal/infrastructure/taskqueue"
	repoimpl "roster-service/internal/interface/repository"
	"roster-service/internal/usecase"
	"roster-service/pkg/logger"
	"roster-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Roster Service", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up the relational store
	var store repository.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("Using in-memory store; data is lost on restart")
		store = repoimpl.NewMemoryStore()
	default:
		log.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		if err := persistence.Migrate(gormDB, repoimpl.Models()...); err != nil {
			log.Fatal("Failed to migrate PostgreSQL", "error", err)
		}
		store = repoimpl.NewGormStore(gormDB)
	}

	// Set up the audit log; MongoDB when configured
	var auditRepo repository.AuditRepository
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		var db *mongo.Database
		mongoClient, db, err = persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		auditRepo = repoimpl.NewMongoAuditRepository(db)
	} else {
		log.Warn("MONGODB_DSN not set, keeping audit log in memory")
		auditRepo = repoimpl.NewMemoryAuditRepository()
	}

	m := metrics.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	policy, err := usecase.ParseConflictPolicy(cfg.BulkConflictPolicy)
	if err != nil {
		log.Fatal("Invalid conflict policy", "error", err)
	}

	retry := taskqueue.RetryPolicy{
		MaxAttempts: cfg.FetchRetryMaxAttempts,
		Backoff:     cfg.FetchRetryBackoff,
	}
	pool := taskqueue.NewWorkerPool(cfg.TaskWorkers, cfg.TaskQueueSize, retry, log, m)

	auditor := usecase.NewAuditor(auditRepo, log)
	builder := usecase.NewShiftBuilder(usecase.NewIdentityResolver(usecase.ExactNameMatcher{}, log), policy, log)
	orchestrator := usecase.NewFetchOrchestrator(
		store,
		pool,
		fetcher.NewHTTPFetcher(cfg.FetchHTTPTimeout, log),
		builder,
		auditor,
		m,
		log,
		usecase.OrchestratorConfig{
			UploadDir:        cfg.UploadTempDir,
			MaxUploadBytes:   cfg.UploadMaxBytes,
			RawSnapshotBytes: cfg.RawSnapshotBytes,
			Retry:            retry,
		},
	)

	// Set up usecases
	services := usecase.NewServices(store, auditor, orchestrator, log)

	// Start the fetch scheduler in a goroutine
	go func() {
		dispatch := func() {
			handles, err := services.Orchestrator.DispatchDue(ctx)
			if err != nil {
				log.Error("Error dispatching due fetches", "error", err)
				return
			}
			if len(handles) > 0 {
				log.Info("Dispatched due fetches", "count", len(handles))
			}
		}

		dispatch()
		ticker := time.NewTicker(cfg.FetchScheduleInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Fetch scheduler stopped")
				return
			case <-ticker.C:
				dispatch()
			}
		}
	}()

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop the scheduler
	pool.Stop()

	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}

	log.Info("Roster Service stopped")
}
