package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/card-authorization-gateway/internal/api_gateway"
	"github.com/card-authorization-gateway/internal/api_gateway/service"
	"github.com/card-authorization-gateway/internal/authorizer/components"
	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/data/mongo"
	"github.com/card-authorization-gateway/internal/data/postgres"
	"github.com/card-authorization-gateway/internal/data/redis"
	"github.com/card-authorization-gateway/internal/logger"
	"github.com/card-authorization-gateway/internal/platform/messaging/producers"
	"github.com/card-authorization-gateway/internal/platform/persistence"
	"github.com/card-authorization-gateway/internal/telemetry"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	shutdownTracing, err := telemetry.InitTracing(appCtx, &cfg.Application, &cfg.Telemetry)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	var (
		metrics  *telemetry.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Telemetry.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.NewMetrics(registry)
		gatherer = registry
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

	// Initialize Kafka producer for asynchronous submissions
	kafkaProducer, err := producers.NewAuthorizationRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize API Gateway Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	issuerRepo := postgres.NewIssuerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	merchantRepo := redis.WithCredentialCache(log, postgres.NewMerchantRepository(log, postgresDB), redisClient, cfg.Redis.CredentialTTL)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())

	// Initialize services
	authorizationService := components.CreateAuthorizationService(components.Dependencies{
		DB:           postgresDB.Pool(),
		IssuerRepo:   issuerRepo,
		MerchantRepo: merchantRepo,
		OutboxRepo:   outboxRepo,
		Metrics:      metrics,
	}, log, cfg)
	transactionService := service.NewTransactionService(log, authorizationService, kafkaProducer, ledgerRepo)
	cardService := service.NewCardService(issuerRepo)

	// Initialize REST server
	checks := []api_gateway.ReadinessCheck{
		{Name: "postgres", Check: postgresDB.Ping},
		{Name: "mongodb", Check: mongoDB.Ping},
	}
	if redisClient != nil {
		checks = append(checks, api_gateway.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	server := api_gateway.NewServer(log, cfg, transactionService, cardService, metrics, gatherer, checks...)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores they use
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	if err := kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

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
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
