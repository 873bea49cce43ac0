package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/card-authorization-gateway/internal/domain/merchant"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerchantRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MerchantRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()
	cred := &merchant.Credential{
		MerchantName: "Corner Shop",
		TokenHash:    "$2a$04$hash",
		BankName:     "FirstBank",
		AccountNum:   1001,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `INSERT INTO merchants \(merchant_name, token_hash, bank_name, account_num, created_at, updated_at\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)\s+ON CONFLICT \(merchant_name\) DO UPDATE`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(cred.MerchantName, cred.TokenHash, cred.BankName, cred.AccountNum, cred.CreatedAt, cred.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Upsert(ctx, cred))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(query).WithArgs(anyArgs(6)...).WillReturnError(dbErr)

		err := repo.Upsert(ctx, cred)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to upsert merchant")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMerchantRepository_GetByName(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MerchantRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()

	query := `SELECT merchant_name, token_hash, bank_name, account_num, created_at, updated_at\s+FROM merchants\s+WHERE merchant_name = \$1`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"merchant_name", "token_hash", "bank_name", "account_num", "created_at", "updated_at"}).
			AddRow("Corner Shop", "$2a$04$hash", "FirstBank", int64(1001), now, now)
		mock.ExpectQuery(query).WithArgs("Corner Shop").WillReturnRows(rows)

		cred, err := repo.GetByName(ctx, "Corner Shop")
		require.NoError(t, err)
		assert.Equal(t, &merchant.Credential{
			MerchantName: "Corner Shop",
			TokenHash:    "$2a$04$hash",
			BankName:     "FirstBank",
			AccountNum:   1001,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, cred)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("Ghost").WillReturnError(pgx.ErrNoRows)

		cred, err := repo.GetByName(ctx, "Ghost")
		assert.Nil(t, cred)
		assert.ErrorIs(t, err, merchant.ErrCredentialNotFound{MerchantName: "Ghost"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("timeout")
		mock.ExpectQuery(query).WithArgs("Corner Shop").WillReturnError(dbErr)

		cred, err := repo.GetByName(ctx, "Corner Shop")
		assert.Nil(t, cred)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
