package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/outbox"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/platform/persistence"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// EngineConfig tunes the engine.
type EngineConfig struct {
	Timeout       time.Duration
	MaxCASRetries int
}

// AuthorizationEngine runs the ordered authorization gates. It is the only
// writer of transaction records and the only mutator of credit_used.
type AuthorizationEngine struct {
	db           persistence.TxBeginner
	availability AvailabilityChecker
	idempotency  IdempotencyChecker
	parser       RequestParser
	issuers      IssuerManager
	ledger       LedgerWriter
	cfg          EngineConfig
	logger       *slog.Logger
}

func NewAuthorizationEngine(
	db persistence.TxBeginner,
	availability AvailabilityChecker,
	idempotency IdempotencyChecker,
	parser RequestParser,
	issuers IssuerManager,
	ledgerWriter LedgerWriter,
	cfg EngineConfig,
	logger *slog.Logger,
) *AuthorizationEngine {
	if cfg.MaxCASRetries <= 0 {
		cfg.MaxCASRetries = 1
	}
	return &AuthorizationEngine{
		db:           db,
		availability: availability,
		idempotency:  idempotency,
		parser:       parser,
		issuers:      issuers,
		ledger:       ledgerWriter,
		cfg:          cfg,
		logger:       logger,
	}
}

// Authorize decides a request. Unexpected faults are logged and reported as
// DecisionProcessingError; they never reach the caller.
func (e *AuthorizationEngine) Authorize(ctx context.Context, request *shared.AuthorizationRequest) (decision shared.Decision) {
	ctx, span := telemetry.Tracer().Start(ctx, "Authorize")
	defer span.End()

	logger := e.requestLogger(request)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered during authorization", "panic", p)
			span.SetStatus(codes.Error, "panic")
			decision = shared.DecisionProcessingError
		}
		span.SetAttributes(attribute.String("decision", decision.Label()))
	}()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	decision, err := e.authorize(ctx, request, logger)
	if err != nil {
		logger.Error("Authorization failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorization failed")
		return shared.DecisionProcessingError
	}

	logger.Info("Authorization decided", "decision", decision.String())
	return decision
}

func (e *AuthorizationEngine) authorize(ctx context.Context, request *shared.AuthorizationRequest, logger *slog.Logger) (shared.Decision, error) {
	if request.RequestID != "" {
		stored, found, err := e.idempotency.StoredDecision(ctx, request.RequestID)
		if err != nil {
			return "", fmt.Errorf("idempotency check failed: %w", err)
		}
		if found {
			logger.Info("Request already decided, returning stored decision", "decision", stored.String())
			return stored, nil
		}
	}

	if !e.availability.Available(ctx) {
		logger.Warn("Bank network unavailable")
		record := ledger.NewRecord(request, lenientAmount(request.Amount), false, shared.ReasonBankNotAvailable)
		return e.appendRecord(ctx, record, shared.DecisionBankNotAvailable)
	}

	parsed, err := e.parser.Parse(request)
	if err != nil {
		return "", fmt.Errorf("malformed request: %w", err)
	}

	for attempt := 1; attempt <= e.cfg.MaxCASRetries; attempt++ {
		decision, err := e.attempt(ctx, request, parsed)
		if errors.Is(err, issuer.ErrConcurrentModification{}) {
			logger.Warn("Credit balance changed concurrently, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return "", err
		}
		return decision, nil
	}

	return "", fmt.Errorf("gave up after %d concurrent modifications", e.cfg.MaxCASRetries)
}

// attempt runs the lookup, gates and write for one snapshot of the account.
func (e *AuthorizationEngine) attempt(ctx context.Context, request *shared.AuthorizationRequest, parsed *ParsedRequest) (shared.Decision, error) {
	account, err := e.issuers.Lookup(ctx, parsed.CardNumber)
	if err != nil {
		if errors.Is(err, issuer.ErrAccountNotFound{}) {
			return shared.DecisionCardNotFound, nil
		}
		return "", err
	}

	if account.BankName != request.BankName {
		return shared.DecisionBankNotFound, nil
	}

	if request.CardType == shared.CardTypeDebit {
		return shared.DecisionDebitNotAllowed, nil
	}

	if !account.CanCharge(parsed.Amount) {
		record := ledger.NewRecord(request, parsed.Amount, false, "")
		return e.appendRecord(ctx, record, shared.DecisionInsufficientFunds)
	}

	record := ledger.NewRecord(request, parsed.Amount, true, "")
	err = persistence.RunInTx(ctx, e.db, func(tx pgx.Tx) error {
		if err := e.issuers.Charge(ctx, tx, account, parsed.Amount); err != nil {
			return err
		}
		return e.ledger.Append(ctx, tx, record)
	})
	if errors.Is(err, outbox.ErrDuplicateMessage{}) {
		return e.storedDecision(ctx, request.RequestID)
	}
	if err != nil {
		return "", err
	}

	return shared.DecisionApproved, nil
}

// appendRecord writes a record outside any transaction and returns decision.
func (e *AuthorizationEngine) appendRecord(ctx context.Context, record *ledger.TransactionRecord, decision shared.Decision) (shared.Decision, error) {
	err := e.ledger.Append(ctx, nil, record)
	if errors.Is(err, outbox.ErrDuplicateMessage{}) {
		return e.storedDecision(ctx, record.RequestID)
	}
	if err != nil {
		return "", err
	}
	return decision, nil
}

// storedDecision resolves a lost race against a concurrent retry of the same request.
func (e *AuthorizationEngine) storedDecision(ctx context.Context, requestID string) (shared.Decision, error) {
	stored, found, err := e.idempotency.StoredDecision(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("failed to read decision stored for request %s: %w", requestID, err)
	}
	if !found {
		return "", fmt.Errorf("request %s reported as duplicate but no record is stored", requestID)
	}
	return stored, nil
}

func (e *AuthorizationEngine) requestLogger(request *shared.AuthorizationRequest) *slog.Logger {
	logger := e.logger.With(
		"merchant_name", request.MerchantName,
		"card_suffix", shared.CardSuffix(string(request.CardNumber)),
	)
	if request.RequestID != "" {
		logger = logger.With("request_id", request.RequestID)
	}
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}
	return logger
}

// lenientAmount is used where the amount is recorded without being validated.
func lenientAmount(raw shared.NumericString) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(string(raw)))
	if err != nil {
		return decimal.Zero
	}
	return amount
}
