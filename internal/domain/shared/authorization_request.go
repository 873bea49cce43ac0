package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// NumericString carries a numeric request field that clients send either as a
// JSON number or as a JSON string. The raw text is kept and parsed later.
type NumericString string

// UnmarshalJSON accepts 150, 150.25, "150" and "150.25".
func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errors.New("numeric field must be a number or a string")
	}
	*n = NumericString(num.String())
	return nil
}

// AuthorizationRequest is a point-of-sale charge as received over HTTP or Kafka.
type AuthorizationRequest struct {
	MerchantName  string        `json:"merchant_name"`
	MerchantToken *string       `json:"merchant_token,omitempty"` // nil means the token was not sent
	BankName      string        `json:"bank"`
	CardNumber    NumericString `json:"cc_num"`
	Amount        NumericString `json:"amount"`
	CardType      string        `json:"card_type"`
	RequestID     string        `json:"request_id,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	SubmittedAt   time.Time     `json:"submitted_at,omitempty"`
}

// HasToken reports whether the merchant supplied a token at all.
func (r *AuthorizationRequest) HasToken() bool {
	return r.MerchantToken != nil
}

// DecisionEvent is published for every asynchronously processed request.
type DecisionEvent struct {
	RequestID     string    `json:"request_id"`
	MerchantName  string    `json:"merchant_name"`
	Decision      Decision  `json:"decision"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	DecidedAt     time.Time `json:"decided_at"`
}

// CardSuffix returns the last four characters of a card number, or the whole
// value when it is shorter.
func CardSuffix(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
