package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/outbox"
)

// LedgerWriterImpl appends records through the transactional outbox. The
// outbox poller later publishes them to the transaction log.
type LedgerWriterImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewLedgerWriter(outboxRepo outbox.Repository, logger *slog.Logger) service.LedgerWriter {
	return &LedgerWriterImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Append stores record as a pending outbox message, inside tx when it is not nil.
func (w *LedgerWriterImpl) Append(ctx context.Context, tx pgx.Tx, record *ledger.TransactionRecord) error {
	logger := w.logger
	if record.CorrelationID != "" {
		logger = w.logger.With("correlation_id", record.CorrelationID)
	}

	repo := w.outboxRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	message, err := outbox.NewMessage(record)
	if err != nil {
		logger.Error("Failed to create outbox message (marshal payload)",
			"transaction_id", record.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", record.TransactionID.String(), err)
	}

	if err := repo.Create(ctx, message); err != nil {
		if errors.Is(err, outbox.ErrDuplicateMessage{}) {
			logger.Info("Record already written for request", "request_id", record.RequestID)
			return err
		}
		return fmt.Errorf("failed to append transaction record %s: %w", record.TransactionID.String(), err)
	}

	logger.Info("Transaction record appended",
		"transaction_id", record.TransactionID.String(),
		"approved", record.Approved,
		"outbox_id", message.ID,
	)
	return nil
}
