package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/card-authorization-gateway/internal/domain/shared"
)

// MockProcessingService mocks the ProcessingService interface
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) Process(ctx context.Context, request *shared.AuthorizationRequest) (shared.Decision, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(shared.Decision), args.Error(1)
}

func TestWorkerPoolProcessingService_Process(t *testing.T) {
	request := scenarioRequest("150")
	request.RequestID = "req-1"
	request.CorrelationID = "corr-1"

	tests := []struct {
		name             string
		setupMocks       func(base *MockProcessingService)
		expectedDecision shared.Decision
		expectedError    error
	}{
		{
			name: "returns the decision",
			setupMocks: func(base *MockProcessingService) {
				base.On("Process", mock.Anything, request).Return(shared.DecisionApproved, nil).Once()
			},
			expectedDecision: shared.DecisionApproved,
		},
		{
			name: "passes errors through",
			setupMocks: func(base *MockProcessingService) {
				base.On("Process", mock.Anything, request).Return(shared.Decision(""), errors.New("processing error")).Once()
			},
			expectedError: errors.New("processing error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &MockProcessingService{}
			svc, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 2}, newTestLogger())
			require.NoError(t, err)
			defer svc.Shutdown()

			tt.setupMocks(base)

			decision, err := svc.Process(context.Background(), request)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedDecision, decision)
			base.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolProcessingService_Concurrency(t *testing.T) {
	base := &MockProcessingService{}
	svc, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 5}, newTestLogger())
	require.NoError(t, err)
	defer svc.Shutdown()

	var counter int64
	base.On("Process", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&counter, 1)
	}).Return(shared.DecisionApproved, nil)

	numRequests := 10
	var wg sync.WaitGroup
	wg.Add(numRequests)
	for i := 0; i < numRequests; i++ {
		go func() {
			defer wg.Done()
			decision, err := svc.Process(context.Background(), scenarioRequest("1"))
			assert.NoError(t, err)
			assert.Equal(t, shared.DecisionApproved, decision)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numRequests), atomic.LoadInt64(&counter))
	base.AssertNumberOfCalls(t, "Process", numRequests)
}

func TestWorkerPoolProcessingService_ContextCancelled(t *testing.T) {
	base := &MockProcessingService{}
	svc, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 1}, newTestLogger())
	require.NoError(t, err)
	defer svc.Shutdown()

	release := make(chan struct{})
	base.On("Process", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		<-release
	}).Return(shared.DecisionApproved, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Process(ctx, scenarioRequest("1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestWorkerPoolProcessingService_Capacity(t *testing.T) {
	svc, err := NewWorkerPoolProcessingService(&MockProcessingService{}, WorkerPoolConfig{Size: 3}, newTestLogger())
	require.NoError(t, err)
	defer svc.Shutdown()

	assert.Equal(t, 3, svc.Capacity())
	assert.Equal(t, 0, svc.Running())
}
