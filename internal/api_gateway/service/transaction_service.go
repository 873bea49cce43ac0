package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authorizer "github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/platform/messaging/producers"
)

var ErrMerchantNameMissing = errors.New("merchant_name is required")

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	handler    authorizer.RequestHandler
	producer   producers.MessagePublisher
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewTransactionService(
	logger *slog.Logger,
	handler authorizer.RequestHandler,
	producer producers.MessagePublisher,
	ledgerRepo ledger.Repository,
) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		handler:    handler,
		producer:   producer,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

func (s *TransactionServiceImpl) Authorize(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision {
	return s.handler.Handle(ctx, request)
}

// Submit publishes request to the authorization requests topic keyed by its
// request id, assigning one when the caller did not.
func (s *TransactionServiceImpl) Submit(ctx context.Context, request *shared.AuthorizationRequest) (string, error) {
	if strings.TrimSpace(request.MerchantName) == "" {
		return "", ErrMerchantNameMissing
	}

	if request.RequestID == "" {
		request.RequestID = uuid.New().String()
	}
	request.SubmittedAt = time.Now().UTC()

	if err := s.producer.Publish(ctx, request.RequestID, request); err != nil {
		s.logger.Error("Failed to publish authorization request",
			"request_id", request.RequestID,
			"merchant_name", request.MerchantName,
			"error", err,
		)
		return "", fmt.Errorf("failed to queue request %s: %w", request.RequestID, err)
	}

	s.logger.Info("Authorization request queued",
		"request_id", request.RequestID,
		"merchant_name", request.MerchantName,
	)
	return request.RequestID, nil
}

// GetTransactionsByMerchant retrieves a page of records for a merchant
func (s *TransactionServiceImpl) GetTransactionsByMerchant(ctx context.Context, merchantName string, page, perPage int) ([]*ledger.TransactionRecord, int64, error) {
	offset := (page - 1) * perPage

	records, err := s.ledgerRepo.GetByMerchant(ctx, merchantName, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByMerchant(ctx, merchantName)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
