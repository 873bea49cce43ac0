package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/card-authorization-gateway/internal/authorizer/components"
	"github.com/card-authorization-gateway/internal/authorizer/consumer"
	"github.com/card-authorization-gateway/internal/authorizer/outbox_poller"
	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/data/mongo"
	"github.com/card-authorization-gateway/internal/data/postgres"
	"github.com/card-authorization-gateway/internal/data/redis"
	"github.com/card-authorization-gateway/internal/logger"
	"github.com/card-authorization-gateway/internal/platform/messaging/consumers"
	"github.com/card-authorization-gateway/internal/platform/messaging/producers"
	"github.com/card-authorization-gateway/internal/platform/persistence"
	"github.com/card-authorization-gateway/internal/telemetry"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("transaction_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Transaction Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	shutdownTracing, err := telemetry.InitTracing(appCtx, &cfg.Application, &cfg.Telemetry)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// The processor has no API, metrics are served on their own listener
	var (
		metrics       *telemetry.Metrics
		metricsServer *http.Server
	)
	if cfg.Telemetry.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.NewMetrics(registry)

		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler(registry))
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           mux,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
		}
	}

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	issuerRepo := postgres.NewIssuerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	merchantRepo := redis.WithCredentialCache(log, postgres.NewMerchantRepository(log, postgresDB), redisClient, cfg.Redis.CredentialTTL)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())

	if err := ledgerRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create transaction record indexes", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producers and consumer
	decisionProducer, err := producers.NewDecisionProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize decision Kafka producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.TransactionTopic)

	// Initialize processing service behind the worker pool
	processingService := components.CreateProcessingService(components.Dependencies{
		DB:           postgresDB.Pool(),
		IssuerRepo:   issuerRepo,
		MerchantRepo: merchantRepo,
		OutboxRepo:   outboxRepo,
		Metrics:      metrics,
	}, log, cfg)

	requestHandler := consumer.NewAuthorizationRequestHandler(
		log,
		processingService,
		decisionProducer,
		dlqProducer,
		metrics,
	)

	// Initialize outbox poller
	ledgerPublisher := outbox_poller.NewLedgerPublisher(
		outboxRepo,
		ledgerRepo,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		ledgerPublisher,
		metrics,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 3)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.TransactionTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, requestHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	if metricsServer != nil {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Server.Port)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Release the pool once nothing can submit to it anymore
	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	var shutdownErr error
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}

	if err := decisionProducer.Close(); err != nil {
		log.Error("Error closing decision Kafka producer", "error", err)
		shutdownErr = err
	}

	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
		shutdownErr = err
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error stopping metrics server", "error", err)
			shutdownErr = err
		}
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", "error", err)
			shutdownErr = err
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
		shutdownErr = err
	}

	// Final status
	if serviceErr != nil {
		log.Error("Transaction Processor shutdown with errors", "error", serviceErr)
	}
	if shutdownErr != nil {
		log.Error("Transaction Processor shutdown completed with errors")
	} else {
		log.Info("Transaction Processor shutdown completed successfully")
	}
}
