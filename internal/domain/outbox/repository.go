package outbox

import (
	"context"
	"strconv"

	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// Repository manages transactional outbox message persistence
type Repository interface {
	// Create returns ErrDuplicateMessage when another message holds the same request id.
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	GetByRequestID(ctx context.Context, requestID string) (*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64, lastError string) error
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID        int64
	RequestID string
}

func (e ErrMessageNotFound) Error() string {
	if e.RequestID != "" {
		return "outbox message not found for request: " + e.RequestID
	}
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrMessageNotFound.
func (e ErrMessageNotFound) Is(target error) bool {
	_, ok := target.(ErrMessageNotFound)
	return ok
}

// ErrDuplicateMessage indicates a request id uniqueness violation
type ErrDuplicateMessage struct {
	RequestID string
}

func (e ErrDuplicateMessage) Error() string {
	return "duplicate outbox message for request: " + e.RequestID
}

// Is matches any ErrDuplicateMessage.
func (e ErrDuplicateMessage) Is(target error) bool {
	_, ok := target.(ErrDuplicateMessage)
	return ok
}
