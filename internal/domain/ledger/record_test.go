package ledger

import (
	"errors"
	"testing"

	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewRecord(t *testing.T) {
	req := &shared.AuthorizationRequest{
		MerchantName:  "Corner Shop",
		CardNumber:    "4111111111111234",
		RequestID:     "req-1",
		CorrelationID: "corr-1",
	}

	rec := NewRecord(req, decimal.RequireFromString("150"), true, "")

	assert.NotEqual(t, uuid.Nil, rec.TransactionID)
	assert.Equal(t, "Corner Shop", rec.MerchantName)
	assert.Equal(t, "1234", rec.CardSuffix)
	assert.Equal(t, "req-1", rec.RequestID)
	assert.Equal(t, "corr-1", rec.CorrelationID)
	assert.True(t, rec.Approved)
	assert.False(t, rec.CreatedAt.IsZero())

	other := NewRecord(req, decimal.RequireFromString("150"), true, "")
	assert.NotEqual(t, rec.TransactionID, other.TransactionID, "every attempt gets its own id")
}

func TestTransactionRecord_Decision(t *testing.T) {
	testCases := []struct {
		name     string
		record   TransactionRecord
		expected shared.Decision
	}{
		{"Approved", TransactionRecord{Approved: true}, shared.DecisionApproved},
		{"BankDown", TransactionRecord{ErrorReason: shared.ReasonBankNotAvailable}, shared.DecisionBankNotAvailable},
		{"Declined", TransactionRecord{}, shared.DecisionInsufficientFunds},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.record.Decision())
		})
	}
}

func TestErrorTypes_Is(t *testing.T) {
	id := uuid.New()
	assert.True(t, errors.Is(ErrRecordNotFound{TransactionID: id}, ErrRecordNotFound{}))
	assert.True(t, errors.Is(ErrRecordNotFound{TransactionID: id}, ErrRecordNotFound{TransactionID: id}))
	assert.False(t, errors.Is(ErrRecordNotFound{TransactionID: id}, ErrRecordNotFound{TransactionID: uuid.New()}))
	assert.True(t, errors.Is(ErrDuplicateRecord{TransactionID: id}, ErrDuplicateRecord{}))
	assert.False(t, errors.Is(ErrDuplicateRecord{TransactionID: id}, ErrRecordNotFound{}))
}
