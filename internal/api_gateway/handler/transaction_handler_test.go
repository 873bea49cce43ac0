package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/card-authorization-gateway/internal/api_gateway/middleware"
	"github.com/card-authorization-gateway/internal/api_gateway/service"
	"github.com/card-authorization-gateway/internal/domain/ledger"
	"github.com/card-authorization-gateway/internal/domain/shared"
)

// PaginatedResponse is a generic version of Response for testing paginated data
type PaginatedResponse[T any] struct {
	Data          []T        `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Authorize(ctx context.Context, request *shared.AuthorizationRequest) shared.Decision {
	args := m.Called(ctx, request)
	return args.Get(0).(shared.Decision)
}

func (m *MockTransactionService) Submit(ctx context.Context, request *shared.AuthorizationRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *MockTransactionService) GetTransactionsByMerchant(ctx context.Context, merchantName string, page, perPage int) ([]*ledger.TransactionRecord, int64, error) {
	args := m.Called(ctx, merchantName, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.TransactionRecord), args.Get(1).(int64), args.Error(2)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTransactionRouter(h *TransactionHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.POST("/transactions", h.Authorize)
	router.POST("/transactions/async", h.Submit)
	router.GET("/merchants/:merchant_name/transactions", h.GetByMerchant)
	return router
}

const validBody = `{"merchant_name":"Coffee Shop","bank":"FirstBank","cc_num":"4111111111111111","amount":150,"card_type":"Credit"}`

func TestTransactionHandler_Authorize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name         string
		body         string
		headers      map[string]string
		setupMock    func(*MockTransactionService)
		expectedBody shared.Decision
	}{
		{
			name: "Approved",
			body: validBody,
			setupMock: func(m *MockTransactionService) {
				m.On("Authorize", mock.Anything, mock.MatchedBy(func(req *shared.AuthorizationRequest) bool {
					return req.MerchantName == "Coffee Shop" &&
						req.BankName == "FirstBank" &&
						req.CardNumber == "4111111111111111" &&
						req.Amount == "150" &&
						!req.HasToken() &&
						req.CorrelationID != ""
				})).Return(shared.DecisionApproved).Once()
			},
			expectedBody: shared.DecisionApproved,
		},
		{
			name: "DeclineStillReturns200",
			body: validBody,
			setupMock: func(m *MockTransactionService) {
				m.On("Authorize", mock.Anything, mock.Anything).Return(shared.DecisionInsufficientFunds).Once()
			},
			expectedBody: shared.DecisionInsufficientFunds,
		},
		{
			name:    "IdempotencyHeader",
			body:    validBody,
			headers: map[string]string{IdempotencyKeyHeader: "retry-1"},
			setupMock: func(m *MockTransactionService) {
				m.On("Authorize", mock.Anything, mock.MatchedBy(func(req *shared.AuthorizationRequest) bool {
					return req.RequestID == "retry-1"
				})).Return(shared.DecisionApproved).Once()
			},
			expectedBody: shared.DecisionApproved,
		},
		{
			name:    "BodyRequestIDWins",
			body:    `{"merchant_name":"Coffee Shop","request_id":"from-body","amount":"1"}`,
			headers: map[string]string{IdempotencyKeyHeader: "from-header"},
			setupMock: func(m *MockTransactionService) {
				m.On("Authorize", mock.Anything, mock.MatchedBy(func(req *shared.AuthorizationRequest) bool {
					return req.RequestID == "from-body"
				})).Return(shared.DecisionApproved).Once()
			},
			expectedBody: shared.DecisionApproved,
		},
		{
			name:         "MalformedJSON",
			body:         `{"merchant_name":`,
			setupMock:    func(m *MockTransactionService) {},
			expectedBody: shared.DecisionProcessingError,
		},
		{
			name:         "BooleanAmount",
			body:         `{"merchant_name":"Coffee Shop","amount":true}`,
			setupMock:    func(m *MockTransactionService) {},
			expectedBody: shared.DecisionProcessingError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockTransactionService)
			tc.setupMock(mockService)
			router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

			req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)

			var response AuthorizationResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Equal(t, http.StatusOK, response.StatusCode)
			assert.Equal(t, tc.expectedBody.String(), response.Body)

			mockService.AssertExpectations(t)
		})
	}
}

func TestTransactionHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		requestID := uuid.New().String()
		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(req *shared.AuthorizationRequest) bool {
			return req.MerchantName == "Coffee Shop" && req.Amount == "150"
		})).Return(requestID, nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/transactions/async", bytes.NewBufferString(validBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var topLevelResponse map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))

		responseBody, ok := topLevelResponse["data"].(map[string]interface{})
		require.True(t, ok, "'data' field should be a map")
		assert.Equal(t, requestID, responseBody["request_id"])
		assert.Equal(t, "queued", responseBody["status"])
		assert.NotEmpty(t, topLevelResponse["correlation_id"])

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		req, _ := http.NewRequest(http.MethodPost, "/transactions/async", bytes.NewBufferString(`{"invalid`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("MissingMerchantName", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return("", service.ErrMerchantNameMissing).Once()

		req, _ := http.NewRequest(http.MethodPost, "/transactions/async", bytes.NewBufferString(`{"amount":1}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, shared.DecisionMerchantNameMissing.String(), response.Error.Message)
	})

	t.Run("PublishError", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return("", fmt.Errorf("failed to queue request: %w", errors.New("broker down"))).Once()

		req, _ := http.NewRequest(http.MethodPost, "/transactions/async", bytes.NewBufferString(validBody))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestTransactionHandler_GetByMerchant(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		records := []*ledger.TransactionRecord{
			{
				TransactionID: uuid.New(),
				MerchantName:  "Coffee Shop",
				CardSuffix:    "1111",
				Amount:        decimal.RequireFromString("150"),
				Approved:      true,
				CreatedAt:     created,
			},
			{
				TransactionID: uuid.New(),
				MerchantName:  "Coffee Shop",
				CardSuffix:    "1111",
				Amount:        decimal.RequireFromString("300.5"),
				ErrorReason:   "",
				CreatedAt:     created,
			},
		}
		mockService.On("GetTransactionsByMerchant", mock.Anything, "Coffee Shop", 2, 2).
			Return(records, int64(5), nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/merchants/Coffee%20Shop/transactions?page=2&page_size=2", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response PaginatedResponse[TransactionResponse]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.Len(t, response.Data, 2)
		assert.Equal(t, records[0].TransactionID.String(), response.Data[0].TransactionID)
		assert.Equal(t, "150.00", response.Data[0].Amount)
		assert.True(t, response.Data[0].Approved)
		assert.Equal(t, "300.50", response.Data[1].Amount)
		assert.Equal(t, "2024-05-01T10:00:00Z", response.Data[1].CreatedAt)

		require.NotNil(t, response.Meta)
		assert.Equal(t, 2, response.Meta.Page)
		assert.Equal(t, 2, response.Meta.PageSize)
		assert.Equal(t, 3, response.Meta.TotalPages)
		assert.Equal(t, 5, response.Meta.TotalItems)
	})

	t.Run("DefaultPagination", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		mockService.On("GetTransactionsByMerchant", mock.Anything, "Coffee Shop", 1, 10).
			Return([]*ledger.TransactionRecord{}, int64(0), nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/merchants/Coffee%20Shop/transactions", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		req, _ := http.NewRequest(http.MethodGet, "/merchants/Coffee%20Shop/transactions?page_size=500", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetTransactionsByMerchant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(NewTransactionHandler(newTestLogger(), mockService))

		mockService.On("GetTransactionsByMerchant", mock.Anything, "Coffee Shop", 1, 10).
			Return(nil, int64(0), errors.New("mongo down")).Once()

		req, _ := http.NewRequest(http.MethodGet, "/merchants/Coffee%20Shop/transactions", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
