package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/domain/outbox"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// Poller moves pending outbox messages into the transaction log
type Poller struct {
	outboxRepo       outbox.Repository
	ledgerPublisher  LedgerPublisher
	metrics          *telemetry.Metrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	ledgerPublisher LedgerPublisher,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		ledgerPublisher:  ledgerPublisher,
		metrics:          metrics,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := p.ledgerPublisher.PublishToLedger(ctx, msg)
		if err == nil {
			p.metrics.OutboxPublished()
			continue
		}

		p.metrics.OutboxFailed()
		logger := p.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID.String())
		logger.Error("Failed to publish outbox message", "attempts", msg.Attempts, "error", err)

		if errors.Is(err, ErrUndecodablePayload) {
			continue
		}

		if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID, err.Error()); errInc != nil {
			logger.Error("Failed to increment attempts for outbox message", "error", errInc)
			continue
		}

		if msg.Attempts+1 >= p.maxRetryAttempts {
			logger.Warn("Max retry attempts reached, marking outbox message as FAILED_TO_PUBLISH",
				"attempts_made", msg.Attempts+1)
			if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
				logger.Error("Failed to update outbox status after max retries", "error", errUpdate)
			}
		}
	}
	return nil
}
