package components

import (
	"log/slog"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/merchant"
	"github.com/card-authorization-gateway/internal/domain/outbox"
	"github.com/card-authorization-gateway/internal/platform/persistence"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// Dependencies are the stores and collaborators the authorization flow needs.
type Dependencies struct {
	DB           persistence.TxBeginner
	IssuerRepo   issuer.Repository
	MerchantRepo merchant.Repository
	OutboxRepo   outbox.Repository
	Availability service.AvailabilityChecker // nil selects the random oracle from config
	Metrics      *telemetry.Metrics
}

// CreateAuthorizationService wires the gatekeeper, engine and its components.
func CreateAuthorizationService(deps Dependencies, logger *slog.Logger, cfg *config.Config) *service.AuthorizationService {
	availability := deps.Availability
	if availability == nil {
		availability = service.NewRandomAvailability(cfg.Authorization.BankAvailabilityRate)
	}

	engine := service.NewAuthorizationEngine(
		deps.DB,
		availability,
		NewIdempotencyChecker(deps.OutboxRepo, logger),
		NewRequestParser(logger),
		NewIssuerManager(deps.IssuerRepo, logger),
		NewLedgerWriter(deps.OutboxRepo, logger),
		service.EngineConfig{
			Timeout:       cfg.Authorization.Timeout,
			MaxCASRetries: cfg.Authorization.MaxCASRetries,
		},
		logger.With("component", "engine"),
	)

	gatekeeper := service.NewMerchantGatekeeper(deps.MerchantRepo, cfg.Authorization.Timeout, logger.With("component", "gatekeeper"))

	return service.NewAuthorizationService(gatekeeper, engine, deps.Metrics, logger)
}

// CreateProcessingService runs the authorization service behind the worker pool,
// falling back to running it inline if the pool cannot be created.
func CreateProcessingService(deps Dependencies, logger *slog.Logger, cfg *config.Config) service.ProcessingService {
	baseService := CreateAuthorizationService(deps, logger, cfg)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
