package components

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/card-authorization-gateway/internal/domain/issuer"
)

type MockIssuerRepo struct {
	mock.Mock
}

func (m *MockIssuerRepo) Upsert(ctx context.Context, account *issuer.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockIssuerRepo) GetByCardNumber(ctx context.Context, cardNumber int64) (*issuer.Account, error) {
	args := m.Called(ctx, cardNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuer.Account), args.Error(1)
}

func (m *MockIssuerRepo) UpdateCreditUsed(ctx context.Context, cardNumber int64, expectedUsed, newUsed decimal.Decimal, version int) error {
	args := m.Called(ctx, cardNumber, expectedUsed, newUsed, version)
	return args.Error(0)
}

func (m *MockIssuerRepo) WithTx(tx pgx.Tx) issuer.Repository {
	args := m.Called(tx)
	return args.Get(0).(issuer.Repository)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decimalEq(want string) interface{} {
	d := decimal.RequireFromString(want)
	return mock.MatchedBy(func(got decimal.Decimal) bool { return got.Equal(d) })
}

func testAccount() *issuer.Account {
	return &issuer.Account{
		CardNumber:  4111111111111111,
		BankName:    "FirstBank",
		CreditLimit: decimal.RequireFromString("1000"),
		CreditUsed:  decimal.RequireFromString("800"),
		Version:     3,
	}
}

func TestIssuerManager_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := &MockIssuerRepo{}
		acc := testAccount()
		repo.On("GetByCardNumber", ctx, acc.CardNumber).Return(acc, nil)

		got, err := NewIssuerManager(repo, newTestLogger()).Lookup(ctx, acc.CardNumber)
		require.NoError(t, err)
		assert.Same(t, acc, got)
	})

	t.Run("not found passes through", func(t *testing.T) {
		repo := &MockIssuerRepo{}
		repo.On("GetByCardNumber", ctx, int64(42)).Return(nil, issuer.ErrAccountNotFound{CardNumber: 42})

		got, err := NewIssuerManager(repo, newTestLogger()).Lookup(ctx, 42)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, issuer.ErrAccountNotFound{})
	})

	t.Run("store error is wrapped", func(t *testing.T) {
		repo := &MockIssuerRepo{}
		repo.On("GetByCardNumber", ctx, int64(42)).Return(nil, errors.New("connection reset"))

		_, err := NewIssuerManager(repo, newTestLogger()).Lookup(ctx, 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to look up issuer account")
		assert.NotErrorIs(t, err, issuer.ErrAccountNotFound{})
	})
}

func TestIssuerManager_Charge(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		amount        string
		setupMocks    func(repo *MockIssuerRepo, acc *issuer.Account)
		expectedError error
	}{
		{
			name:   "swaps observed credit used",
			amount: "150",
			setupMocks: func(repo *MockIssuerRepo, acc *issuer.Account) {
				repo.On("WithTx", mock.Anything).Return(repo)
				repo.On("UpdateCreditUsed", ctx, acc.CardNumber, decimalEq("800"), decimalEq("950"), 3).Return(nil)
			},
		},
		{
			name:   "exact remaining credit",
			amount: "200.00",
			setupMocks: func(repo *MockIssuerRepo, acc *issuer.Account) {
				repo.On("WithTx", mock.Anything).Return(repo)
				repo.On("UpdateCreditUsed", ctx, acc.CardNumber, decimalEq("800"), decimalEq("1000"), 3).Return(nil)
			},
		},
		{
			name:   "concurrent modification",
			amount: "10",
			setupMocks: func(repo *MockIssuerRepo, acc *issuer.Account) {
				repo.On("WithTx", mock.Anything).Return(repo)
				repo.On("UpdateCreditUsed", ctx, acc.CardNumber, mock.Anything, mock.Anything, 3).
					Return(issuer.ErrConcurrentModification{CardNumber: acc.CardNumber})
			},
			expectedError: issuer.ErrConcurrentModification{},
		},
		{
			name:   "over the limit never reaches the store",
			amount: "200.01",
			setupMocks: func(repo *MockIssuerRepo, acc *issuer.Account) {
				// no expectations: any store call fails the test
			},
			expectedError: issuer.ErrInsufficientCredit,
		},
		{
			name:          "invalid amount",
			amount:        "-5",
			setupMocks:    func(repo *MockIssuerRepo, acc *issuer.Account) {},
			expectedError: issuer.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockIssuerRepo{}
			acc := testAccount()
			tt.setupMocks(repo, acc)

			err := NewIssuerManager(repo, newTestLogger()).Charge(ctx, nil, acc, decimal.RequireFromString(tt.amount))
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
