package outbox

import (
	"encoding/json"
	"time"

	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/google/uuid"
)

// Message carries a transaction record from the authorization transaction to
// the published ledger. RequestID is unique when set, which makes it the
// idempotency key for client retries.
type Message struct {
	ID            int64                  `json:"id"`
	TransactionID uuid.UUID              `json:"transaction_id"`
	RequestID     string                 `json:"request_id,omitempty"`
	EventType     shared.OutboxEventType `json:"event_type"`
	Payload       json.RawMessage        `json:"payload"`
	Status        shared.OutboxStatus    `json:"status"`
	Attempts      int                    `json:"attempts"`
	LastError     string                 `json:"last_error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	LastAttemptAt *time.Time             `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps record in a pending outbox message.
func NewMessage(record *ledger.TransactionRecord) (*Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: record.TransactionID,
		RequestID:     record.RequestID,
		EventType:     shared.OutboxEventTransactionRecorded,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts(lastError string) {
	m.Attempts++
	m.LastError = lastError
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Record decodes the transaction record carried in the payload.
func (m *Message) Record() (*ledger.TransactionRecord, error) {
	var record ledger.TransactionRecord
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
