package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/card-authorization-gateway/internal/api_gateway/handler"
	"github.com/card-authorization-gateway/internal/api_gateway/middleware"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/telemetry"
)

// setupRouter configures API routes and middleware for the application. A nil
// gatherer leaves /metrics unregistered.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	transactionHandler *handler.TransactionHandler,
	cardHandler *handler.CardHandler,
	metrics *telemetry.Metrics,
	gatherer prometheus.Gatherer,
	checks []ReadinessCheck,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(metrics))

	// A panic while deciding still answers with the decision envelope
	decisionRecovery := middleware.RecoveryWith(logger, func(c *gin.Context) {
		c.JSON(http.StatusOK, handler.AuthorizationResponse{
			StatusCode: http.StatusOK,
			Body:       shared.DecisionProcessingError.String(),
		})
	})

	transactions := r.Group("/transactions")
	{
		transactions.POST("", decisionRecovery, transactionHandler.Authorize)
		transactions.POST("/async", transactionHandler.Submit)
	}

	r.GET("/merchants/:merchant_name/transactions", transactionHandler.GetByMerchant)
	r.GET("/cards/:card_number", cardHandler.GetByNumber)

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.GET("/ready", readinessHandler(checks))

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(telemetry.Handler(gatherer)))
	}
}
