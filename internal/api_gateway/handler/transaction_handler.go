package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/card-authorization-gateway/internal/api_gateway/middleware"
	"github.com/card-authorization-gateway/internal/api_gateway/service"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

// IdempotencyKeyHeader may carry the request id when the body does not
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler handles HTTP requests for authorization operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Authorize decides a charge synchronously. The HTTP status is always 200 and
// the decision string is the only thing distinguishing outcomes.
func (h *TransactionHandler) Authorize(c *gin.Context) {
	request, err := h.bindRequest(c)
	if err != nil {
		h.logger.Warn("Malformed authorization request",
			"correlation_id", middleware.GetCorrelationID(c),
			"error", err)
		respondDecision(c, shared.DecisionProcessingError)
		return
	}

	decision := h.transactionService.Authorize(c.Request.Context(), request)
	respondDecision(c, decision)
}

// Submit queues a charge on Kafka and answers 202 with the request id the
// decision will be published under.
func (h *TransactionHandler) Submit(c *gin.Context) {
	request, err := h.bindRequest(c)
	if err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body")
		return
	}

	requestID, err := h.transactionService.Submit(c.Request.Context(), request)
	if err != nil {
		if errors.Is(err, service.ErrMerchantNameMissing) {
			RespondBadRequest(c, shared.DecisionMerchantNameMissing.String())
			return
		}
		h.logger.Error("Failed to queue authorization request", "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, SubmitResponse{
		RequestID: requestID,
		Status:    "queued",
	})
}

// GetByMerchant retrieves paginated transaction history for a merchant
func (h *TransactionHandler) GetByMerchant(c *gin.Context) {
	merchantName := c.Param("merchant_name")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.transactionService.GetTransactionsByMerchant(
		c.Request.Context(),
		merchantName,
		pagination.Page,
		pagination.PageSize,
	)
	if err != nil {
		h.logger.Error("Failed to get transactions", "merchant_name", merchantName, "error", err)
		RespondInternalError(c)
		return
	}

	transactions := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		transactions = append(transactions, mapRecordToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PageSize, int(total))
}

// bindRequest decodes the body and copies the idempotency header and the
// correlation id onto the request.
func (h *TransactionHandler) bindRequest(c *gin.Context) (*shared.AuthorizationRequest, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}

	var request shared.AuthorizationRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return nil, err
	}

	if request.RequestID == "" {
		request.RequestID = c.GetHeader(IdempotencyKeyHeader)
	}
	request.CorrelationID = middleware.GetCorrelationID(c)

	return &request, nil
}

func respondDecision(c *gin.Context, decision shared.Decision) {
	c.JSON(http.StatusOK, AuthorizationResponse{
		StatusCode: http.StatusOK,
		Body:       decision.String(),
	})
}

// mapRecordToResponse maps a transaction record to a transaction response DTO
func mapRecordToResponse(record *ledger.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		TransactionID: record.TransactionID.String(),
		RequestID:     record.RequestID,
		MerchantName:  record.MerchantName,
		CardSuffix:    record.CardSuffix,
		Amount:        record.Amount.StringFixed(2),
		Approved:      record.Approved,
		ErrorReason:   record.ErrorReason,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}
}
