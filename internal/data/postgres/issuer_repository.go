// Package postgres provides PostgreSQL implementations of the domain repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// IssuerRepository implements issuer.Repository for PostgreSQL
type IssuerRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewIssuerRepository creates a new PostgreSQL issuer directory repository.
func NewIssuerRepository(logger *slog.Logger, db *persistence.PostgresDB) issuer.Repository {
	return &IssuerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx.
func (r *IssuerRepository) WithTx(tx pgx.Tx) issuer.Repository {
	return &IssuerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Upsert inserts the account or replaces bank, limit and used credit of an
// existing card, bumping its version.
func (r *IssuerRepository) Upsert(ctx context.Context, acc *issuer.Account) error {
	query := `
		INSERT INTO issuer_accounts (card_number, bank_name, credit_limit, credit_used, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (card_number) DO UPDATE
		SET bank_name = EXCLUDED.bank_name, credit_limit = EXCLUDED.credit_limit, credit_used = EXCLUDED.credit_used,
			version = issuer_accounts.version + 1, updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		acc.CardNumber,
		acc.BankName,
		acc.CreditLimit,
		acc.CreditUsed,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert issuer account", "card_suffix", acc.CardSuffix(), "error", err)
		return fmt.Errorf("failed to upsert issuer account: %w", err)
	}

	return nil
}

// GetByCardNumber retrieves the issuer account for a card.
func (r *IssuerRepository) GetByCardNumber(ctx context.Context, cardNumber int64) (*issuer.Account, error) {
	query := `
		SELECT card_number, bank_name, credit_limit, credit_used, version, created_at, updated_at
		FROM issuer_accounts
		WHERE card_number = $1
	`

	var acc issuer.Account
	err := r.querier.QueryRow(ctx, query, cardNumber).Scan(
		&acc.CardNumber,
		&acc.BankName,
		&acc.CreditLimit,
		&acc.CreditUsed,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, issuer.ErrAccountNotFound{CardNumber: cardNumber}
		}
		r.logger.Error("Failed to get issuer account", "error", err)
		return nil, fmt.Errorf("failed to get issuer account: %w", err)
	}

	return &acc, nil
}

// UpdateCreditUsed is a compare-and-swap on credit_used. The row is only
// touched when it still holds expectedUsed at the observed version, and the
// limit check is repeated in SQL so the range constraint can never be crossed.
func (r *IssuerRepository) UpdateCreditUsed(ctx context.Context, cardNumber int64, expectedUsed, newUsed decimal.Decimal, version int) error {
	query := `
		UPDATE issuer_accounts
		SET credit_used = $1, version = version + 1, updated_at = NOW()
		WHERE card_number = $2 AND credit_used = $3 AND version = $4 AND $1 <= credit_limit
	`

	result, err := r.querier.Exec(ctx, query, newUsed, cardNumber, expectedUsed, version)
	if err != nil {
		r.logger.Error("Failed to update credit used", "error", err)
		return fmt.Errorf("failed to update credit used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return issuer.ErrConcurrentModification{CardNumber: cardNumber}
	}

	return nil
}
