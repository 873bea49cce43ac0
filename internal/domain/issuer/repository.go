package issuer

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines issuer directory persistence operations
type Repository interface {
	// Upsert inserts or replaces an account, used by batch ingestion.
	Upsert(ctx context.Context, account *Account) error
	GetByCardNumber(ctx context.Context, cardNumber int64) (*Account, error)

	// UpdateCreditUsed swaps credit_used from expectedUsed to newUsed only if the
	// row still carries expectedUsed and version. Otherwise it returns
	// ErrConcurrentModification and changes nothing.
	UpdateCreditUsed(ctx context.Context, cardNumber int64, expectedUsed, newUsed decimal.Decimal, version int) error
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	CardNumber int64
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for card ending " + suffix(e.CardNumber)
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.CardNumber == 0 || t.CardNumber == e.CardNumber
}

// ErrAccountNotFound indicates the card is not in the directory
type ErrAccountNotFound struct {
	CardNumber int64
}

func (e ErrAccountNotFound) Error() string {
	return "issuer account not found for card ending " + suffix(e.CardNumber)
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.CardNumber == 0 || t.CardNumber == e.CardNumber
}

func suffix(cardNumber int64) string {
	s := strconv.FormatInt(cardNumber, 10)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
