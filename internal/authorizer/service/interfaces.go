package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

// RequestHandler turns an inbound request into a decision. It never fails the
// caller: every fault becomes shared.DecisionProcessingError.
type RequestHandler interface {
	Handle(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision
}

// ProcessingService is what transports that can retry (Kafka) call. A non-nil
// error means the request was not handled at all and may be redelivered.
type ProcessingService interface {
	Process(ctx context.Context, request *shared.AuthorizationRequest) (shared.Decision, error)
}

// AvailabilityChecker stands in for the bank network health check.
type AvailabilityChecker interface {
	Available(ctx context.Context) bool
}

// Gatekeeper authenticates merchants that present a token.
type Gatekeeper interface {
	Authenticate(ctx context.Context, merchantName, token string) shared.Decision
}

// ParsedRequest holds the typed card number and amount of a request.
type ParsedRequest struct {
	CardNumber int64
	Amount     decimal.Decimal
}

// RequestParser validates the numeric fields of a request
type RequestParser interface {
	Parse(request *shared.AuthorizationRequest) (*ParsedRequest, error)
}

// IdempotencyChecker finds the decision already recorded for a request id.
type IdempotencyChecker interface {
	StoredDecision(ctx context.Context, requestID string) (shared.Decision, bool, error)
}

// IssuerManager reads issuer accounts and applies approved charges
type IssuerManager interface {
	Lookup(ctx context.Context, cardNumber int64) (*issuer.Account, error)
	Charge(ctx context.Context, tx pgx.Tx, account *issuer.Account, amount decimal.Decimal) error
}

// LedgerWriter appends transaction records. A nil tx writes outside any transaction.
type LedgerWriter interface {
	Append(ctx context.Context, tx pgx.Tx, record *ledger.TransactionRecord) error
}
