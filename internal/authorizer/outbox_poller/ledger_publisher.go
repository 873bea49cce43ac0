package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/outbox"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

// ErrUndecodablePayload marks a message that can never be published.
var ErrUndecodablePayload = errors.New("undecodable outbox payload")

// LedgerPublisher copies one outbox message into the transaction log
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

// LedgerPublisherImpl writes records to the document store and marks the
// outbox row as processed.
type LedgerPublisherImpl struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
) *LedgerPublisherImpl {
	return &LedgerPublisherImpl{
		outboxRepo: outboxRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// PublishToLedger is safe to repeat: a record that is already in the log
// counts as published.
func (p *LedgerPublisherImpl) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	record, err := message.Record()
	if err != nil {
		p.logger.Error("Failed to decode transaction record from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Failed to mark undecodable outbox message as FAILED_TO_PUBLISH",
				"outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	logger := p.logger.With("outbox_id", message.ID, "transaction_id", record.TransactionID.String())
	if record.CorrelationID != "" {
		logger = logger.With("correlation_id", record.CorrelationID)
	}

	if err := p.ledgerRepo.Create(ctx, record); err != nil {
		if !errors.Is(err, ledger.ErrDuplicateRecord{}) {
			logger.Error("Failed to write transaction record", "error", err)
			return fmt.Errorf("failed to write transaction record %s: %w", record.TransactionID, err)
		}
		logger.Info("Transaction record already published")
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message as PROCESSED", "error", err)
		return fmt.Errorf("record %s published, but failed to mark outbox %d as PROCESSED: %w", record.TransactionID, message.ID, err)
	}

	logger.Debug("Outbox message published")
	return nil
}
