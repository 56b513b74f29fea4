package mocks

import (
	"context"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// MockClientUpdatePublisher is a mock type for the interfaces.ClientUpdatePublisher type
type MockClientUpdatePublisher struct {
	mock.Mock
}

func (_m *MockClientUpdatePublisher) PublishClientUpdate(ctx context.Context, payload messaging.SessionUpdatePayload) error {
	ret := _m.Called(ctx, payload)
	return ret.Error(0)
}

// NewMockClientUpdatePublisher creates a new instance of MockClientUpdatePublisher.
// The first argument is typically a *testing.T value.
func NewMockClientUpdatePublisher(t interface {
	mock.TestingT
	Helper()
}) *MockClientUpdatePublisher {
	m := &MockClientUpdatePublisher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.ClientUpdatePublisher = (*MockClientUpdatePublisher)(nil)
