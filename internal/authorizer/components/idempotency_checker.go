package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/domain/outbox"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

type IdempotencyCheckerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewIdempotencyChecker(outboxRepo outbox.Repository, logger *slog.Logger) service.IdempotencyChecker {
	return &IdempotencyCheckerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// StoredDecision looks up the record written for requestID. Paths that write no
// record (unknown card, bank mismatch, debit) are simply decided again.
func (c *IdempotencyCheckerImpl) StoredDecision(ctx context.Context, requestID string) (shared.Decision, bool, error) {
	message, err := c.outboxRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, outbox.ErrMessageNotFound{}) {
			return "", false, nil
		}
		c.logger.Error("Failed to check outbox for idempotency", "request_id", requestID, "error", err)
		return "", false, fmt.Errorf("idempotency check failed for request %s: %w", requestID, err)
	}

	record, err := message.Record()
	if err != nil {
		return "", false, fmt.Errorf("stored record for request %s is unreadable: %w", requestID, err)
	}

	return record.Decision(), true, nil
}
