package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/domain/issuer"
)

// IssuerManagerImpl implements the IssuerManager interface
type IssuerManagerImpl struct {
	issuerRepo issuer.Repository
	logger     *slog.Logger
}

// NewIssuerManager creates a new IssuerManagerImpl
func NewIssuerManager(issuerRepo issuer.Repository, logger *slog.Logger) service.IssuerManager {
	return &IssuerManagerImpl{
		issuerRepo: issuerRepo,
		logger:     logger,
	}
}

// Lookup reads the current snapshot of the account behind cardNumber.
func (m *IssuerManagerImpl) Lookup(ctx context.Context, cardNumber int64) (*issuer.Account, error) {
	account, err := m.issuerRepo.GetByCardNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, issuer.ErrAccountNotFound{}) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up issuer account: %w", err)
	}
	return account, nil
}

// Charge moves credit_used from the snapshot value to snapshot + amount inside
// tx. A concurrent writer makes it fail with ErrConcurrentModification.
func (m *IssuerManagerImpl) Charge(ctx context.Context, tx pgx.Tx, account *issuer.Account, amount decimal.Decimal) error {
	if !issuer.ValidAmount(amount) {
		return issuer.ErrInvalidAmount
	}
	if !account.CanCharge(amount) {
		return issuer.ErrInsufficientCredit
	}

	newUsed := account.CreditUsed.Add(amount)
	err := m.issuerRepo.WithTx(tx).UpdateCreditUsed(ctx, account.CardNumber, account.CreditUsed, newUsed, account.Version)
	if err != nil {
		if errors.Is(err, issuer.ErrConcurrentModification{}) {
			m.logger.Warn("Concurrent modification on credit update", "card_suffix", account.CardSuffix(), "version", account.Version)
		}
		return err
	}

	m.logger.Info("Credit used updated",
		"card_suffix", account.CardSuffix(),
		"old_used", account.CreditUsed.String(),
		"new_used", newUsed.String(),
	)
	return nil
}
