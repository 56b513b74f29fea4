package mocks

import (
	"context"

	"dream-advisor/shared/advisor"

	"github.com/stretchr/testify/mock"
)

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

// MockSpeechTranscriber mocks the speech-to-text client used by the legacy
// synchronous endpoint. Интерфейс объявлен на стороне потребителя, поэтому
// compile-time проверки здесь нет.
type MockSpeechTranscriber struct {
	mock.Mock
}

func (_m *MockSpeechTranscriber) Enabled() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

func (_m *MockSpeechTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	ret := _m.Called(ctx, audio, filename)
	return ret.String(0), ret.Error(1)
}

// NewMockSpeechTranscriber creates a new instance of MockSpeechTranscriber.
// The first argument is typically a *testing.T value.
func NewMockSpeechTranscriber(t interface {
	mock.TestingT
	Helper()
}) *MockSpeechTranscriber {
	m := &MockSpeechTranscriber{}
	m.Mock.Test(t)
	t.Helper()
	return m
}
