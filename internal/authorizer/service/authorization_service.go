package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// Authorizer is the engine entry point used by AuthorizationService.
type Authorizer interface {
	Authorize(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision
}

// AuthorizationService applies the request level checks (merchant name,
// optional token) before handing the request to the engine.
type AuthorizationService struct {
	gatekeeper Gatekeeper
	engine     Authorizer
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

func NewAuthorizationService(gatekeeper Gatekeeper, engine Authorizer, metrics *telemetry.Metrics, logger *slog.Logger) *AuthorizationService {
	return &AuthorizationService{
		gatekeeper: gatekeeper,
		engine:     engine,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle returns the decision for request.
//
// A request without merchant_token skips authentication entirely and goes
// straight to the engine. Presenting a token, even an empty one, requires it to
// match the stored credential.
func (s *AuthorizationService) Handle(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision {
	start := time.Now()
	decision := s.handle(ctx, request)
	s.metrics.ObserveAuthorization(decision, time.Since(start))
	return decision
}

func (s *AuthorizationService) handle(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision {
	if request == nil || strings.TrimSpace(request.MerchantName) == "" {
		return shared.DecisionMerchantNameMissing
	}

	if request.HasToken() {
		if s.gatekeeper.Authenticate(ctx, request.MerchantName, *request.MerchantToken) != shared.DecisionSuccess {
			s.logger.Warn("Merchant not authorized",
				"merchant_name", request.MerchantName,
				"correlation_id", request.CorrelationID,
			)
			return shared.DecisionMerchantNotAuthorized
		}
	}

	return s.engine.Authorize(ctx, request)
}

// Process implements ProcessingService. Handling a request never fails.
func (s *AuthorizationService) Process(ctx context.Context, request *shared.AuthorizationRequest) (shared.Decision, error) {
	return s.Handle(ctx, request), nil
}
