package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/mealforge/internal/service"
	"github.com/pageza/mealforge/internal/types"
)

// MockPipelineRunner is a mock implementation of the pipeline
type MockPipelineRunner struct {
	mock.Mock
}

// Run mocks the Run method
func (m *MockPipelineRunner) Run(ctx context.Context, req *types.GenerateRequest) types.PipelineResult {
	args := m.Called(ctx, req)
	return args.Get(0).(types.PipelineResult)
}

// MockLimiter is a mock implementation of the rate limiter
type MockLimiter struct {
	mock.Mock
}

// Allow mocks the Allow method
func (m *MockLimiter) Allow(ctx context.Context, identity string) service.Decision {
	args := m.Called(ctx, identity)
	return args.Get(0).(service.Decision)
}

// Peek mocks the Peek method
func (m *MockLimiter) Peek(ctx context.Context, identity string) service.Decision {
	args := m.Called(ctx, identity)
	return args.Get(0).(service.Decision)
}
