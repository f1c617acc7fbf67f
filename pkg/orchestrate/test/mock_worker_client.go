package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
)

// MockWorkerClient is a mock implementation of the port.WorkerClient interface.
// It records calls and returns predefined values, allowing isolated testing of
// components that submit batches or poll task status.
type MockWorkerClient struct {
	mock.Mock
}

// Submit mocks the Submit method of port.WorkerClient.
// It records the call and returns the predefined receipt and error.
func (m *MockWorkerClient) Submit(ctx context.Context, items model.WorkItemList, opts port.SubmitOptions) (model.SubmitReceipt, error) {
	args := m.Called(ctx, items, opts)
	return args.Get(0).(model.SubmitReceipt), args.Error(1)
}

// Status mocks the Status method of port.WorkerClient.
// It records the call and returns the predefined status and error.
func (m *MockWorkerClient) Status(ctx context.Context, taskID string) (model.TaskStatus, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(model.TaskStatus), args.Error(1)
}

// Ensure that MockWorkerClient implements the port.WorkerClient interface.
var _ port.WorkerClient = (*MockWorkerClient)(nil)
