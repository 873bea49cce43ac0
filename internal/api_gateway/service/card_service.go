package service

import (
	"context"

	"github.com/card-authorization-gateway/internal/domain/issuer"
)

// CardServiceImpl implements the CardService interface
type CardServiceImpl struct {
	issuerRepo issuer.Repository
}

func NewCardService(issuerRepo issuer.Repository) *CardServiceImpl {
	return &CardServiceImpl{
		issuerRepo: issuerRepo,
	}
}

func (s *CardServiceImpl) GetCard(ctx context.Context, cardNumber int64) (*issuer.Account, error) {
	return s.issuerRepo.GetByCardNumber(ctx, cardNumber)
}
