package merchant

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyMerchantName = errors.New("merchant name cannot be empty")
	ErrEmptyToken        = errors.New("merchant token cannot be empty")
)

// Credential maps a merchant to its authentication token. Only the bcrypt hash
// of the token is stored.
type Credential struct {
	MerchantName string    `json:"merchant_name"`
	TokenHash    string    `json:"-"`
	BankName     string    `json:"bank_name"`
	AccountNum   int64     `json:"account_num"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewCredential hashes token with the given bcrypt cost.
func NewCredential(merchantName, token, bankName string, accountNum int64, cost int) (*Credential, error) {
	if strings.TrimSpace(merchantName) == "" {
		return nil, ErrEmptyMerchantName
	}
	if token == "" {
		return nil, ErrEmptyToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Credential{
		MerchantName: merchantName,
		TokenHash:    string(hash),
		BankName:     bankName,
		AccountNum:   accountNum,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Matches reports whether token is the one this credential was created with.
func (c *Credential) Matches(token string) bool {
	if c == nil || c.TokenHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.TokenHash), []byte(token)) == nil
}
