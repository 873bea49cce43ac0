package ledger

import (
	"time"

	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRecord is one processed authorization attempt. Records are
// append-only: they are created once and never updated or deleted.
type TransactionRecord struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	RequestID     string          `json:"request_id,omitempty"`
	MerchantName  string          `json:"merchant_name"`
	CardSuffix    string          `json:"card_suffix"`
	Amount        decimal.Decimal `json:"amount"`
	Approved      bool            `json:"approved"`
	ErrorReason   string          `json:"error_reason,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewRecord creates a record with a fresh transaction id.
func NewRecord(req *shared.AuthorizationRequest, amount decimal.Decimal, approved bool, reason string) *TransactionRecord {
	return &TransactionRecord{
		TransactionID: uuid.New(),
		RequestID:     req.RequestID,
		MerchantName:  req.MerchantName,
		CardSuffix:    shared.CardSuffix(string(req.CardNumber)),
		Amount:        amount,
		Approved:      approved,
		ErrorReason:   reason,
		CorrelationID: req.CorrelationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Decision reconstructs the decision returned when the record was written.
func (r *TransactionRecord) Decision() shared.Decision {
	switch {
	case r.Approved:
		return shared.DecisionApproved
	case r.ErrorReason == shared.ReasonBankNotAvailable:
		return shared.DecisionBankNotAvailable
	default:
		return shared.DecisionInsufficientFunds
	}
}
