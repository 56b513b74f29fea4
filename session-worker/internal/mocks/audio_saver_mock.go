package mocks

import (
	"dream-advisor/shared/advisor"

	"github.com/stretchr/testify/mock"
)

// MockAudioSaver is a mock type for the advisor.AudioSaver type
type MockAudioSaver struct {
	mock.Mock
}

func (_m *MockAudioSaver) Save(sessionID string, data []byte) (string, error) {
	ret := _m.Called(sessionID, data)
	return ret.String(0), ret.Error(1)
}

// NewMockAudioSaver creates a new instance of MockAudioSaver.
// The first argument is typically a *testing.T value.
func NewMockAudioSaver(t interface {
	mock.TestingT
	Helper()
}) *MockAudioSaver {
	m := &MockAudioSaver{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ advisor.AudioSaver = (*MockAudioSaver)(nil)
