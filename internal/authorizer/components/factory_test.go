package components

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/domain/merchant"
	"github.com/card-authorization-gateway/internal/domain/outbox"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

type MockMerchantRepo struct {
	mock.Mock
}

func (m *MockMerchantRepo) Upsert(ctx context.Context, credential *merchant.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockMerchantRepo) GetByName(ctx context.Context, merchantName string) (*merchant.Credential, error) {
	args := m.Called(ctx, merchantName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.Credential), args.Error(1)
}

func testConfig(poolSize int) *config.Config {
	return &config.Config{
		WorkerPool: config.WorkerPoolConfig{Size: poolSize},
		Authorization: config.AuthorizationConfig{
			BankAvailabilityRate: 0.9,
			Timeout:              time.Second,
			MaxCASRetries:        3,
		},
	}
}

func TestCreateProcessingService(t *testing.T) {
	deps := Dependencies{
		IssuerRepo:   &MockIssuerRepo{},
		MerchantRepo: &MockMerchantRepo{},
		OutboxRepo:   &MockOutboxRepo{},
	}

	t.Run("creates worker pool service", func(t *testing.T) {
		processingService := CreateProcessingService(deps, newTestLogger(), testConfig(5))
		require.NotNil(t, processingService)

		pooled, ok := processingService.(*service.WorkerPoolProcessingService)
		require.True(t, ok)
		assert.Equal(t, 5, pooled.Capacity())
		pooled.Shutdown()
	})

	t.Run("non positive size still yields a service", func(t *testing.T) {
		processingService := CreateProcessingService(deps, newTestLogger(), testConfig(0))
		assert.NotNil(t, processingService)
	})
}

func TestCreateAuthorizationService_BankUnavailable(t *testing.T) {
	ctx := context.Background()
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()

	outboxRepo := &MockOutboxRepo{}
	outboxRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *outbox.Message) bool {
		record, err := m.Record()
		return err == nil && !record.Approved && record.ErrorReason == shared.ReasonBankNotAvailable && record.CardSuffix == "1111"
	})).Return(nil)

	svc := CreateAuthorizationService(Dependencies{
		DB:           db,
		IssuerRepo:   &MockIssuerRepo{},
		MerchantRepo: &MockMerchantRepo{},
		OutboxRepo:   outboxRepo,
		Availability: service.FixedAvailability(false),
	}, newTestLogger(), testConfig(1))

	decision := svc.Handle(ctx, &shared.AuthorizationRequest{
		MerchantName: "Coffee Shop",
		BankName:     "FirstBank",
		CardNumber:   "4111111111111111",
		Amount:       "150",
		CardType:     "Credit",
	})

	assert.Equal(t, shared.DecisionBankNotAvailable, decision)
	outboxRepo.AssertExpectations(t)
	assert.NoError(t, db.ExpectationsWereMet())
}
