package components

import (
	"fmt"
	"log/slog"

	"github.com/card-authorization-gateway/internal/authorizer/service"
	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

type RequestParserImpl struct {
	logger *slog.Logger
}

func NewRequestParser(logger *slog.Logger) service.RequestParser {
	return &RequestParserImpl{logger: logger}
}

// Parse checks that cc_num is a positive integer and amount a positive value
// with at most two decimals.
func (p *RequestParserImpl) Parse(request *shared.AuthorizationRequest) (*service.ParsedRequest, error) {
	logger := p.logger
	if request.CorrelationID != "" {
		logger = p.logger.With("correlation_id", request.CorrelationID)
	}

	cardNumber, err := issuer.ParseCardNumber(string(request.CardNumber))
	if err != nil {
		logger.Warn("Invalid card number", "card_suffix", shared.CardSuffix(string(request.CardNumber)))
		return nil, fmt.Errorf("cc_num: %w", err)
	}

	amount, err := issuer.ParseAmount(string(request.Amount))
	if err != nil {
		logger.Warn("Invalid amount", "amount", string(request.Amount))
		return nil, fmt.Errorf("amount %q: %w", string(request.Amount), err)
	}

	return &service.ParsedRequest{
		CardNumber: cardNumber,
		Amount:     amount,
	}, nil
}
