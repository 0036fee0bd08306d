// Package llm — генерация текста по промпту.
//
// Агенты зависят только от интерфейса Completer. Реализация выбирается при
// сборке процесса (New по LLM_PROVIDER):
//   - gemini    — Google Gemini (google.golang.org/genai)
//   - openai    — OpenAI Chat Completions
//   - anthropic — Anthropic Messages API
//   - stub      — детерминированная заглушка для тестов и локального запуска
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/hrm/internal/config"
	"github.com/shaiso/hrm/internal/telemetry"
)

// Ошибки пакета.
var (
	// ErrMissingAPIKey — не задан ключ API выбранного провайдера.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrUnknownProvider — неизвестное имя провайдера.
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// Completer генерирует текст по промпту. Может вернуть ошибку.
// Текст ответа не проверяется: пустая строка тоже успешный ответ
// (например, Gemini отдаёт её на заблокированный промпт).
// Реализации не хранят состояние между вызовами и безопасны для
// конкурентного использования.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New создаёт Completer по конфигурации.
func New(ctx context.Context, cfg config.LLM) (Completer, error) {
	var (
		c   Completer
		err error
	)

	switch cfg.Provider {
	case "gemini":
		c, err = NewGemini(ctx, cfg)
	case "openai":
		c, err = NewOpenAI(cfg)
	case "anthropic":
		c, err = NewAnthropic(cfg)
	case "stub":
		c = NewStub()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(cfg.Provider, c, cfg.Timeout), nil
}

// Instrument добавляет к Completer таймаут и метрики.
// Ответ передаётся как есть.
func Instrument(provider string, next Completer, timeout time.Duration) Completer {
	return &instrumented{provider: provider, next: next, timeout: timeout}
}

type instrumented struct {
	provider string
	next     Completer
	timeout  time.Duration
}

func (i *instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := i.next.Complete(ctx, prompt)

	status := "ok"
	if err != nil {
		status = "error"
	}
	telemetry.CompletionDuration.WithLabelValues(i.provider, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("%s completion: %w", i.provider, err)
	}
	return text, nil
}
