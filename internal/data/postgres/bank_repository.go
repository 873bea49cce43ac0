package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/card-authorization-gateway/internal/domain/bank"
	"github.com/card-authorization-gateway/internal/platform/persistence"
)

// BankRepository implements bank.Repository for PostgreSQL
type BankRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBankRepository creates a new PostgreSQL bank repository
func NewBankRepository(logger *slog.Logger, db *persistence.PostgresDB) bank.Repository {
	return &BankRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Upsert stores the bank account, replacing the balance of an existing one.
func (r *BankRepository) Upsert(ctx context.Context, acc *bank.Account) error {
	query := `
		INSERT INTO banks (bank_name, account_num, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (bank_name, account_num) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := r.querier.Exec(ctx, query, acc.BankName, acc.AccountNum, acc.Balance); err != nil {
		r.logger.Error("Failed to upsert bank account", "bank_name", acc.BankName, "error", err)
		return fmt.Errorf("failed to upsert bank account: %w", err)
	}

	return nil
}
