package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages the published transaction log with pagination support
type Repository interface {
	Create(ctx context.Context, record *TransactionRecord) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*TransactionRecord, error)
	GetByMerchant(ctx context.Context, merchantName string, limit, offset int) ([]*TransactionRecord, error)
	CountByMerchant(ctx context.Context, merchantName string) (int64, error)
}

// ErrRecordNotFound indicates a missing transaction record
type ErrRecordNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transaction record not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// An empty target id matches any ErrRecordNotFound
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateRecord indicates the record was already stored
type ErrDuplicateRecord struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate transaction record: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
