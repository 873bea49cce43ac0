// Package bank holds the settlement accounts loaded from the bank table batch
// file. The authorization flow never reads them.
package bank

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrEmptyBankName = errors.New("bank name cannot be empty")

// Account is a bank's settlement account and its balance.
type Account struct {
	BankName   string          `json:"bank_name"`
	AccountNum int64           `json:"account_num"`
	Balance    decimal.Decimal `json:"balance"`
}

// NewAccount validates a bank table row.
func NewAccount(bankName string, accountNum int64, balance decimal.Decimal) (*Account, error) {
	if strings.TrimSpace(bankName) == "" {
		return nil, ErrEmptyBankName
	}
	return &Account{BankName: bankName, AccountNum: accountNum, Balance: balance}, nil
}

// Repository persists bank accounts.
type Repository interface {
	Upsert(ctx context.Context, account *Account) error
}
