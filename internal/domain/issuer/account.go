package issuer

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive with at most two decimal places")
	ErrInsufficientCredit = errors.New("amount exceeds available credit")
	ErrInvalidCardNumber  = errors.New("card number must be a positive integer")
	ErrEmptyBankName      = errors.New("bank name cannot be empty")
	ErrInvalidCreditState = errors.New("credit used must be between zero and the credit limit")
)

// Account is the issuer's view of a credit card: who issued it and how much of
// the limit is in use. 0 <= CreditUsed <= CreditLimit always holds.
type Account struct {
	CardNumber  int64           `json:"card_number"`
	BankName    string          `json:"bank_name"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	CreditUsed  decimal.Decimal `json:"credit_used"`
	Version     int             `json:"version"` // For optimistic locking
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewAccount validates and builds an issuer account, typically from a batch row.
func NewAccount(cardNumber int64, bankName string, creditLimit, creditUsed decimal.Decimal) (*Account, error) {
	if cardNumber <= 0 {
		return nil, ErrInvalidCardNumber
	}
	if strings.TrimSpace(bankName) == "" {
		return nil, ErrEmptyBankName
	}
	if creditUsed.IsNegative() || creditUsed.GreaterThan(creditLimit) {
		return nil, ErrInvalidCreditState
	}

	now := time.Now()
	return &Account{
		CardNumber:  cardNumber,
		BankName:    bankName,
		CreditLimit: creditLimit,
		CreditUsed:  creditUsed,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Available returns the headroom left for new charges.
func (a *Account) Available() decimal.Decimal {
	return a.CreditLimit.Sub(a.CreditUsed)
}

// CanCharge reports whether amount fits in the available credit.
func (a *Account) CanCharge(amount decimal.Decimal) bool {
	return !amount.GreaterThan(a.Available())
}

// Charge adds amount to the used credit.
func (a *Account) Charge(amount decimal.Decimal) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if !a.CanCharge(amount) {
		return ErrInsufficientCredit
	}

	a.CreditUsed = a.CreditUsed.Add(amount)
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CardSuffix is the masked form of the card number used in logs and records.
func (a *Account) CardSuffix() string {
	s := strconv.FormatInt(a.CardNumber, 10)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

// ValidAmount reports whether amount is a positive value in whole cents.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(2))
}

// ParseCardNumber parses the digits-only card number used as the directory key.
func ParseCardNumber(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ErrInvalidCardNumber
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, ErrInvalidCardNumber
		}
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidCardNumber
	}
	return n, nil
}

// ParseAmount parses a charge amount and rejects anything ValidAmount refuses.
func ParseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !ValidAmount(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
