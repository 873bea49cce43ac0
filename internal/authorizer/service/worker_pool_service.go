package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/card-authorization-gateway/internal/domain/shared"
)

// WorkerPoolProcessingService bounds how many authorizations run at once
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

type poolResult struct {
	decision shared.Decision
	err      error
}

// Process runs the request on a pool worker and waits for its decision. An
// error means the request could not be scheduled.
func (s *WorkerPoolProcessingService) Process(ctx context.Context, request *shared.AuthorizationRequest) (shared.Decision, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting authorization to worker pool",
		"request_id", request.RequestID,
		"merchant_name", request.MerchantName,
	)

	// Buffered so the worker never blocks if the caller has gone away
	resultChan := make(chan poolResult, 1)

	// Copy to avoid sharing the caller's request with the worker
	requestCopy := *request

	err := s.pool.Submit(func() {
		decision, err := s.baseService.Process(ctx, &requestCopy)
		resultChan <- poolResult{decision: decision, err: err}
	})
	if err != nil {
		logger.Error("Failed to submit authorization to worker pool",
			"request_id", request.RequestID,
			"error", err,
		)
		return "", fmt.Errorf("worker pool rejected request %s: %w", request.RequestID, err)
	}

	select {
	case res := <-resultChan:
		return res.decision, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
