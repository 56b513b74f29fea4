package mocks

import (
	"context"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// MockSessionTaskPublisher is a mock type for the interfaces.SessionTaskPublisher type
type MockSessionTaskPublisher struct {
	mock.Mock
}

func (_m *MockSessionTaskPublisher) PublishSessionTask(ctx context.Context, payload messaging.SessionTaskPayload) error {
	ret := _m.Called(ctx, payload)
	return ret.Error(0)
}

// NewMockSessionTaskPublisher creates a new instance of MockSessionTaskPublisher.
// The first argument is typically a *testing.T value.
func NewMockSessionTaskPublisher(t interface {
	mock.TestingT
	Helper()
}) *MockSessionTaskPublisher {
	m := &MockSessionTaskPublisher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.SessionTaskPublisher = (*MockSessionTaskPublisher)(nil)
