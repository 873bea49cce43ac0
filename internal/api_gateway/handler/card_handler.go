package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/card-authorization-gateway/internal/api_gateway/service"
	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

// CardHandler handles HTTP requests for issuer account lookups
type CardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

// NewCardHandler creates a new card handler
func NewCardHandler(logger *slog.Logger, cardService service.CardService) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

// GetByNumber returns the masked view of a card, 404 if the issuer does not know it
func (h *CardHandler) GetByNumber(c *gin.Context) {
	cardParam := c.Param("card_number")
	cardNumber, err := issuer.ParseCardNumber(cardParam)
	if err != nil {
		RespondBadRequest(c, "Invalid card number")
		return
	}

	account, err := h.cardService.GetCard(c.Request.Context(), cardNumber)
	if err != nil {
		if errors.Is(err, issuer.ErrAccountNotFound{}) {
			RespondNotFound(c, "Card not found")
			return
		}
		h.logger.Error("Failed to get card", "card_suffix", shared.CardSuffix(cardParam), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(account))
}

// mapAccountToResponse maps an issuer account to a card response DTO
func mapAccountToResponse(account *issuer.Account) CardResponse {
	return CardResponse{
		CardSuffix:  account.CardSuffix(),
		BankName:    account.BankName,
		CreditLimit: account.CreditLimit.StringFixed(2),
		CreditUsed:  account.CreditUsed.StringFixed(2),
		Available:   account.Available().StringFixed(2),
	}
}
