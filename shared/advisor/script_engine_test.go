package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dream-advisor/pkg/ai"
	"dream-advisor/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockAIClient живет прямо в тесте: пакет mocks импортирует service и
// отсюда недоступен без цикла.
type mockAIClient struct {
	mock.Mock
}

func (_m *mockAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, systemPrompt, userInput, params)

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}
	return ret.String(0), r1, ret.Error(2)
}

func newMockAIClient(t *testing.T) *mockAIClient {
	t.Helper()
	m := &mockAIClient{}
	m.Mock.Test(t)
	return m
}

var _ ai.Client = (*mockAIClient)(nil)

func mustPersona(t *testing.T, id string) models.Persona {
	t.Helper()
	p, ok := models.GetPersona(id)
	require.True(t, ok, "persona %s not found", id)
	return p
}

func zeroJitter() float64 { return 0 }

func TestComputeScore(t *testing.T) {
	t.Run("base plus length and buzzword bonus", func(t *testing.T) {
		engine := NewScriptEngine(nil)
		engine.SetJitterFunc(zeroJitter)

		// "An AI app for pets": 18 символов => +0.18, buzzword => +0.5
		persona := mustPersona(t, "prof-optimist") // base 7.8
		score := engine.ComputeScore(persona, "An AI app for pets")

		assert.Equal(t, 8.5, score)
	})

	t.Run("length bonus is capped at 2", func(t *testing.T) {
		engine := NewScriptEngine(nil)
		engine.SetJitterFunc(zeroJitter)

		persona := mustPersona(t, "dr-brutal") // base 4.2
		longIdea := strings.Repeat("a very long pitch without trigger words ", 20)
		score := engine.ComputeScore(persona, longIdea)

		// 4.2 + 2.0 (cap), буззвордов нет
		assert.Equal(t, 6.2, score)
	})

	t.Run("buzzword matching is word-bounded and case-insensitive", func(t *testing.T) {
		engine := NewScriptEngine(nil)
		engine.SetJitterFunc(zeroJitter)

		persona := mustPersona(t, "dr-brutal")

		withBuzzword := engine.ComputeScore(persona, "a PLATFORM for dog walkers")
		withoutBuzzword := engine.ComputeScore(persona, "an application for dog walkers")

		// "application" не содержит отдельного слова "app"
		assert.Equal(t, 5.0, withBuzzword)    // 4.2 + 0.26 + 0.5 = 4.96 -> 5.0
		assert.Equal(t, 4.5, withoutBuzzword) // 4.2 + 0.30 = 4.5
	})

	t.Run("score is clamped to the 1..10 range", func(t *testing.T) {
		engine := NewScriptEngine(nil)

		engine.SetJitterFunc(func() float64 { return 0.49 })
		high := engine.ComputeScore(models.Persona{BaseScore: 9.9}, strings.Repeat("platform ", 30))
		assert.Equal(t, 10.0, high)

		engine.SetJitterFunc(func() float64 { return -0.5 })
		low := engine.ComputeScore(models.Persona{BaseScore: 1.0}, "x")
		assert.Equal(t, 1.0, low)
	})

	t.Run("jitter keeps the score within half a point", func(t *testing.T) {
		engine := NewScriptEngine(nil)
		persona := mustPersona(t, "prof-optimist")

		// 7.8 + 0.18 + 0.5 = 8.48 до джиттера
		for i := 0; i < 200; i++ {
			score := engine.ComputeScore(persona, "An AI app for pets")
			assert.GreaterOrEqual(t, score, 7.9)
			assert.LessOrEqual(t, score, 9.0)
		}
	})

	t.Run("result has one decimal digit", func(t *testing.T) {
		engine := NewScriptEngine(nil)
		engine.SetJitterFunc(func() float64 { return 0.123456 })

		persona := mustPersona(t, "zen-master") // base 6.5
		score := engine.ComputeScore(persona, "idea") // 6.5 + 0.04 + 0.123456 = 6.663456

		assert.Equal(t, 6.7, score)
	})
}

func TestVerdictFor(t *testing.T) {
	testCases := []struct {
		score   float64
		verdict string
	}{
		{10.0, "Genius Level!"},
		{8.0, "Genius Level!"},
		{7.9, "Promising Potential"},
		{6.0, "Promising Potential"},
		{5.9, "Needs Work"},
		{4.0, "Needs Work"},
		{3.9, "Back to Drawing Board"},
		{1.0, "Back to Drawing Board"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.verdict, VerdictFor(tc.score), "score %.1f", tc.score)
	}
}

func TestAdviceFor(t *testing.T) {
	for _, verdict := range []string{verdictGenius, verdictPromising, verdictNeedsWork, verdictDrawing} {
		assert.NotEmpty(t, AdviceFor(verdict))
	}

	// Неизвестный вердикт не должен оставить сессию без совета.
	assert.Equal(t, adviceByVerdict[verdictDrawing], AdviceFor("unknown"))
}

func TestGenerateScript(t *testing.T) {
	ctx := context.Background()
	persona := mustPersona(t, "prof-optimist")
	ideaText := "An AI app for pets"

	t.Run("uses the AI client when it succeeds", func(t *testing.T) {
		aiClient := newMockAIClient(t)
		aiClient.On("GenerateText", mock.Anything, persona.RenderPrompt(ideaText), ideaText, mock.Anything).
			Return("  Generated therapy script.  ", ai.UsageInfo{TotalTokens: 42}, nil).Once()

		engine := NewScriptEngine(aiClient)
		script := engine.GenerateScript(ctx, persona, ideaText)

		assert.Equal(t, "Generated therapy script.", script)
		aiClient.AssertExpectations(t)
	})

	t.Run("falls back to the canned script on AI error", func(t *testing.T) {
		aiClient := newMockAIClient(t)
		aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", ai.UsageInfo{}, errors.New("upstream unavailable")).Once()

		engine := NewScriptEngine(aiClient)
		script := engine.GenerateScript(ctx, persona, ideaText)

		assert.Equal(t, persona.RenderFallback(ideaText), script)
		assert.Contains(t, script, ideaText)
		aiClient.AssertExpectations(t)
	})

	t.Run("falls back on an empty AI response", func(t *testing.T) {
		aiClient := newMockAIClient(t)
		aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("   ", ai.UsageInfo{}, nil).Once()

		engine := NewScriptEngine(aiClient)
		script := engine.GenerateScript(ctx, persona, ideaText)

		assert.Equal(t, persona.RenderFallback(ideaText), script)
	})

	t.Run("nil AI client always uses the canned script", func(t *testing.T) {
		engine := NewScriptEngine(nil)
		script := engine.GenerateScript(ctx, persona, ideaText)

		assert.Equal(t, persona.RenderFallback(ideaText), script)
	})
}
