package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"dream-advisor/pkg/ai"
	"dream-advisor/shared/models"
)

// Бонус за упоминание модных словечек. Идея "с AI" всегда звучит дороже.
var buzzwordRe = regexp.MustCompile(`(?i)\b(AI|app|platform|service|solution)\b`)

// Пороги вердиктов по финальной оценке.
const (
	verdictGenius    = "Genius Level!"
	verdictPromising = "Promising Potential"
	verdictNeedsWork = "Needs Work"
	verdictDrawing   = "Back to Drawing Board"
)

// adviceByVerdict - совет, прилагаемый к вердикту.
var adviceByVerdict = map[string]string{
	verdictGenius:    "Stop reading advice columns and go build it. The market window will not stay open forever.",
	verdictPromising: "There is a real idea in here. Sharpen the target customer and test the riskiest assumption first.",
	verdictNeedsWork: "The core needs another iteration. Talk to ten potential users before writing a line of code.",
	verdictDrawing:   "Every great founder has a drawer full of these. File it, learn from it, bring the next one.",
}

// ScriptEngine генерирует сценарий сессии и считает финальную оценку идеи.
// Оценка детерминирована с точностью до джиттера; джиттер инжектируется
// для тестируемости.
type ScriptEngine struct {
	aiClient ai.Client // nil - только canned-сценарии

	mu     sync.Mutex
	jitter func() float64 // возвращает значение в [-0.5, 0.5)
}

// NewScriptEngine создает движок сценариев. aiClient может быть nil, тогда
// используются только заготовленные сценарии персон.
func NewScriptEngine(aiClient ai.Client) *ScriptEngine {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &ScriptEngine{
		aiClient: aiClient,
		jitter:   func() float64 { return rng.Float64() - 0.5 },
	}
}

// SetJitterFunc подменяет источник джиттера. Только для тестов.
func (e *ScriptEngine) SetJitterFunc(fn func() float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jitter = fn
}

// ComputeScore считает финальную оценку идеи персоной:
// база персоны + бонус за длину (min(len/100, 2)) + 0.5 за buzzword +
// джиттер [-0.5, 0.5), затем зажим в [1, 10] и округление до одного знака.
func (e *ScriptEngine) ComputeScore(persona models.Persona, ideaText string) float64 {
	score := persona.BaseScore

	lengthBonus := float64(len(ideaText)) / 100.0
	if lengthBonus > 2.0 {
		lengthBonus = 2.0
	}
	score += lengthBonus

	if buzzwordRe.MatchString(ideaText) {
		score += 0.5
	}

	e.mu.Lock()
	score += e.jitter()
	e.mu.Unlock()

	if score < 1.0 {
		score = 1.0
	}
	if score > 10.0 {
		score = 10.0
	}

	return math.Round(score*10) / 10
}

// VerdictFor возвращает вердикт для финальной оценки.
func VerdictFor(score float64) string {
	switch {
	case score >= 8.0:
		return verdictGenius
	case score >= 6.0:
		return verdictPromising
	case score >= 4.0:
		return verdictNeedsWork
	default:
		return verdictDrawing
	}
}

// AdviceFor возвращает совет, соответствующий вердикту.
func AdviceFor(verdict string) string {
	if advice, ok := adviceByVerdict[verdict]; ok {
		return advice
	}
	return adviceByVerdict[verdictDrawing]
}

// ErrNoAIClient возвращается GenerateWithAI, когда движок собран без AI-клиента.
var ErrNoAIClient = errors.New("script engine has no AI client")

// GenerateWithAI генерирует сценарий через LLM без отката на заготовку.
// Откат и ретраи - ответственность вызывающего.
func (e *ScriptEngine) GenerateWithAI(ctx context.Context, persona models.Persona, ideaText string) (string, ai.UsageInfo, error) {
	if e.aiClient == nil {
		return "", ai.UsageInfo{}, ErrNoAIClient
	}

	script, usage, err := e.aiClient.GenerateText(ctx,
		persona.RenderPrompt(ideaText),
		ideaText,
		ai.GenerationParams{Temperature: float64Ptr(0.8)})
	if err != nil {
		return "", usage, err
	}

	script = strings.TrimSpace(script)
	if script == "" {
		return "", usage, fmt.Errorf("%w: empty response", ai.ErrAIGenerationFailed)
	}
	return script, usage, nil
}

// GenerateScript генерирует сценарий разбора идеи персоной. Сначала пробуем
// LLM; при любой ошибке или пустом ответе откатываемся на заготовленный
// сценарий персоны, поэтому ошибка наружу не возвращается.
func (e *ScriptEngine) GenerateScript(ctx context.Context, persona models.Persona, ideaText string) string {
	script, _, err := e.GenerateWithAI(ctx, persona, ideaText)
	if err != nil {
		if !errors.Is(err, ErrNoAIClient) {
			log.Printf("Генерация сценария через AI не удалась (persona=%s), используем заготовку: %v", persona.ID, err)
		}
		return persona.RenderFallback(ideaText)
	}
	return script
}

// float64Ptr возвращает указатель на float64
func float64Ptr(f float64) *float64 {
	return &f
}
