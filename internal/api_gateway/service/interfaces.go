package service

import (
	"context"

	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

// TransactionService defines the interface for authorization operations
type TransactionService interface {
	// Authorize decides the request synchronously. It never fails; faults are
	// reported through the returned decision.
	Authorize(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision

	// Submit queues the request for asynchronous processing and returns its request id
	Submit(ctx context.Context, request *shared.AuthorizationRequest) (string, error)

	// GetTransactionsByMerchant returns one page of the merchant's records, newest
	// first, and the total number of records
	GetTransactionsByMerchant(ctx context.Context, merchantName string, page, perPage int) ([]*ledger.TransactionRecord, int64, error)
}

// CardService defines the interface for card lookups
type CardService interface {
	// GetCard returns issuer.ErrAccountNotFound for unknown cards
	GetCard(ctx context.Context, cardNumber int64) (*issuer.Account, error)
}
