package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/platform/messaging/producers"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// Message results reported to metrics.
const (
	resultProcessed = "processed"
	resultInvalid   = "invalid"
	resultFailed    = "failed"
)

// AuthorizationRequestHandler decides authorization requests queued by the
// gateway and publishes the decision for each one.
type AuthorizationRequestHandler struct {
	processingService service.ProcessingService
	decisions         producers.MessagePublisher
	dlq               producers.DeadLetterPublisher
	metrics           *telemetry.Metrics
	logger            *slog.Logger
}

func NewAuthorizationRequestHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	decisions producers.MessagePublisher,
	dlq producers.DeadLetterPublisher,
	metrics *telemetry.Metrics,
) *AuthorizationRequestHandler {
	return &AuthorizationRequestHandler{
		processingService: processingService,
		decisions:         decisions,
		dlq:               dlq,
		metrics:           metrics,
		logger:            logger,
	}
}

// HandleMessage processes one Kafka message. Returning an error leaves the
// offset uncommitted so the message is redelivered; replays are safe because
// the request id is the idempotency key.
func (h *AuthorizationRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.AuthorizationRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	if request.RequestID == "" {
		request.RequestID = string(key)
	}

	logger := h.logger.With("request_id", request.RequestID)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received authorization request",
		"merchant_name", request.MerchantName,
		"card_suffix", shared.CardSuffix(string(request.CardNumber)),
	)

	decision, err := h.processingService.Process(ctx, &request)
	if err != nil {
		h.metrics.MessageConsumed(resultFailed)
		logger.Error("Failed to process authorization request", "error", err)
		return fmt.Errorf("processing request %s failed: %w", request.RequestID, err)
	}

	event := shared.DecisionEvent{
		RequestID:     request.RequestID,
		MerchantName:  request.MerchantName,
		Decision:      decision,
		CorrelationID: request.CorrelationID,
		DecidedAt:     time.Now().UTC(),
	}
	if err := h.decisions.Publish(ctx, request.RequestID, event); err != nil {
		h.metrics.MessageConsumed(resultFailed)
		logger.Error("Failed to publish decision", "decision", decision.String(), "error", err)
		return fmt.Errorf("publishing decision for request %s failed: %w", request.RequestID, err)
	}

	h.metrics.MessageConsumed(resultProcessed)
	logger.Info("Authorization request processed", "decision", decision.String())
	return nil
}

// deadLetter parks a message that will never parse. It is committed once the
// DLQ accepts it; otherwise it stays on the topic.
func (h *AuthorizationRequestHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	h.logger.Error("Failed to unmarshal authorization request",
		"error", cause,
		"message_key", string(key),
	)

	reason := fmt.Sprintf("unmarshal authorization request: %s", cause.Error())
	if h.dlq != nil {
		err := h.dlq.PublishToDLQ(ctx, string(key), value, reason)
		if err == nil {
			h.metrics.MessageConsumed(resultInvalid)
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"message_key", string(key),
		)
	}

	h.metrics.MessageConsumed(resultFailed)
	return fmt.Errorf("failed to unmarshal message value: %w", cause)
}
