package api_gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/domain/issuer"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
	"github.com/card-authorization-gateway/internal/telemetry"
)

type stubTransactionService struct {
	authorize func(*shared.AuthorizationRequest) shared.Decision
}

func (s *stubTransactionService) Authorize(_ context.Context, request *shared.AuthorizationRequest) shared.Decision {
	return s.authorize(request)
}

func (s *stubTransactionService) Submit(context.Context, *shared.AuthorizationRequest) (string, error) {
	return "req-1", nil
}

func (s *stubTransactionService) GetTransactionsByMerchant(context.Context, string, int, int) ([]*ledger.TransactionRecord, int64, error) {
	return nil, 0, nil
}

type stubCardService struct{}

func (stubCardService) GetCard(_ context.Context, cardNumber int64) (*issuer.Account, error) {
	return nil, issuer.ErrAccountNotFound{CardNumber: cardNumber}
}

func newTestServer(authorize func(*shared.AuthorizationRequest) shared.Decision, gatherer prometheus.Gatherer, metrics *telemetry.Metrics) *Server {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(logger, &config.Config{}, &stubTransactionService{authorize: authorize}, stubCardService{}, metrics, gatherer)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	server := newTestServer(func(*shared.AuthorizationRequest) shared.Decision {
		return shared.DecisionApproved
	}, reg, telemetry.NewMetrics(reg))

	rr := serve(server, http.MethodPost, "/transactions", `{"merchant_name":"Coffee Shop","amount":1}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"statusCode":200,"body":"Approved."}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	rr = serve(server, http.MethodPost, "/transactions/async", `{"merchant_name":"Coffee Shop"}`)
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = serve(server, http.MethodGet, "/cards/4111111111111111", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = serve(server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="POST",path="/transactions",status="200"} 1`)
}

func TestServer_AuthorizePanicKeepsEnvelope(t *testing.T) {
	server := newTestServer(func(*shared.AuthorizationRequest) shared.Decision {
		panic("engine exploded")
	}, nil, nil)

	rr := serve(server, http.MethodPost, "/transactions", `{"merchant_name":"Coffee Shop","amount":1}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"statusCode":200,"body":"Error processing transaction."}`, rr.Body.String())
}

func TestServer_MetricsDisabled(t *testing.T) {
	server := newTestServer(func(*shared.AuthorizationRequest) shared.Decision {
		return shared.DecisionApproved
	}, nil, nil)

	rr := serve(server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_StopBeforeStart(t *testing.T) {
	server := newTestServer(nil, nil, nil)
	assert.NoError(t, server.Stop(context.Background()))
}

func TestServer_Readiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	healthy := ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "mongodb", Check: func(context.Context) error { return errors.New("no primary") }}

	t.Run("All stores reachable", func(t *testing.T) {
		server := NewServer(logger, &config.Config{}, &stubTransactionService{}, stubCardService{}, nil, nil, healthy)

		rr := serve(server, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rr.Body.String())
	})

	t.Run("Failing store is named", func(t *testing.T) {
		server := NewServer(logger, &config.Config{}, &stubTransactionService{}, stubCardService{}, nil, nil, healthy, down)

		rr := serve(server, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"status":"unavailable","failures":{"mongodb":"no primary"}}`, rr.Body.String())
	})

	t.Run("No checks", func(t *testing.T) {
		server := newTestServer(nil, nil, nil)

		rr := serve(server, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
