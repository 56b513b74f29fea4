package mocks

import (
	"context"

	"dream-advisor/shared/advisor"

	"github.com/stretchr/testify/mock"
)

// MockVideoGenerator is a mock type for the advisor.VideoGenerator type
type MockVideoGenerator struct {
	mock.Mock
}

func (_m *MockVideoGenerator) Enabled() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

func (_m *MockVideoGenerator) CreateVideo(ctx context.Context, script string, videoName string) (string, error) {
	ret := _m.Called(ctx, script, videoName)
	return ret.String(0), ret.Error(1)
}

func (_m *MockVideoGenerator) WaitForVideo(ctx context.Context, videoID string) (string, error) {
	ret := _m.Called(ctx, videoID)
	return ret.String(0), ret.Error(1)
}

// NewMockVideoGenerator creates a new instance of MockVideoGenerator.
// The first argument is typically a *testing.T value.
func NewMockVideoGenerator(t interface {
	mock.TestingT
	Helper()
}) *MockVideoGenerator {
	m := &MockVideoGenerator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ advisor.VideoGenerator = (*MockVideoGenerator)(nil)

// MockSpeechSynthesizer is a mock type for the advisor.SpeechSynthesizer type
type MockSpeechSynthesizer struct {
	mock.Mock
}

func (_m *MockSpeechSynthesizer) Enabled() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

func (_m *MockSpeechSynthesizer) Synthesize(ctx context.Context, voiceID string, text string) ([]byte, error) {
	ret := _m.Called(ctx, voiceID, text)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

// NewMockSpeechSynthesizer creates a new instance of MockSpeechSynthesizer.
// The first argument is typically a *testing.T value.
func NewMockSpeechSynthesizer(t interface {
	mock.TestingT
	Helper()
}) *MockSpeechSynthesizer {
	m := &MockSpeechSynthesizer{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ advisor.SpeechSynthesizer = (*MockSpeechSynthesizer)(nil)
