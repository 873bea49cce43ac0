package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-authorization-gateway/internal/domain/merchant"
	"github.com/card-authorization-gateway/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// MerchantRepository implements merchant.Repository for PostgreSQL
type MerchantRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMerchantRepository creates a new PostgreSQL merchant credential repository
func NewMerchantRepository(logger *slog.Logger, db *persistence.PostgresDB) merchant.Repository {
	return &MerchantRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Upsert stores the credential, replacing the token hash of a known merchant.
func (r *MerchantRepository) Upsert(ctx context.Context, cred *merchant.Credential) error {
	query := `
		INSERT INTO merchants (merchant_name, token_hash, bank_name, account_num, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (merchant_name) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, bank_name = EXCLUDED.bank_name,
			account_num = EXCLUDED.account_num, updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		cred.MerchantName,
		cred.TokenHash,
		cred.BankName,
		cred.AccountNum,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert merchant", "merchant_name", cred.MerchantName, "error", err)
		return fmt.Errorf("failed to upsert merchant: %w", err)
	}

	return nil
}

// GetByName retrieves a merchant credential by merchant name.
func (r *MerchantRepository) GetByName(ctx context.Context, merchantName string) (*merchant.Credential, error) {
	query := `
		SELECT merchant_name, token_hash, bank_name, account_num, created_at, updated_at
		FROM merchants
		WHERE merchant_name = $1
	`

	var cred merchant.Credential
	err := r.querier.QueryRow(ctx, query, merchantName).Scan(
		&cred.MerchantName,
		&cred.TokenHash,
		&cred.BankName,
		&cred.AccountNum,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, merchant.ErrCredentialNotFound{MerchantName: merchantName}
		}
		r.logger.Error("Failed to get merchant", "merchant_name", merchantName, "error", err)
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}

	return &cred, nil
}
