package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/card-authorization-gateway/internal/domain/merchant"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// MerchantGatekeeper checks a presented token against the stored credential.
// Store failures are treated exactly like an unknown merchant.
type MerchantGatekeeper struct {
	credentials merchant.Repository
	timeout     time.Duration
	logger      *slog.Logger
}

func NewMerchantGatekeeper(credentials merchant.Repository, timeout time.Duration, logger *slog.Logger) *MerchantGatekeeper {
	return &MerchantGatekeeper{
		credentials: credentials,
		timeout:     timeout,
		logger:      logger,
	}
}

// Authenticate returns DecisionSuccess or DecisionMerchantNotAuthorized.
func (g *MerchantGatekeeper) Authenticate(ctx context.Context, merchantName, token string) (decision shared.Decision) {
	ctx, span := telemetry.Tracer().Start(ctx, "AuthenticateMerchant")
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			g.logger.Error("Panic recovered during merchant authentication", "merchant_name", merchantName, "panic", p)
			span.SetStatus(codes.Error, "panic")
			decision = shared.DecisionMerchantNotAuthorized
		}
		span.SetAttributes(attribute.String("decision", decision.Label()))
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	credential, err := g.credentials.GetByName(ctx, merchantName)
	if err != nil {
		if errors.Is(err, merchant.ErrCredentialNotFound{}) {
			g.logger.Warn("Unknown merchant presented a token", "merchant_name", merchantName)
		} else {
			g.logger.Error("Merchant credential lookup failed", "merchant_name", merchantName, "error", err)
			span.RecordError(err)
		}
		return shared.DecisionMerchantNotAuthorized
	}

	if !credential.Matches(token) {
		g.logger.Warn("Merchant token mismatch", "merchant_name", merchantName)
		return shared.DecisionMerchantNotAuthorized
	}

	return shared.DecisionSuccess
}
