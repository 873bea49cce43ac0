package shared

// CardTypeDebit is the only card type the engine refuses outright.
const CardTypeDebit = "Debit"

// ReasonBankNotAvailable is stored on records written when the bank network is down.
const ReasonBankNotAvailable = "Bank not available"

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// OutboxEventType identifies what an outbox row carries.
type OutboxEventType string

const (
	OutboxEventTransactionRecorded OutboxEventType = "TRANSACTION_RECORDED"
)
