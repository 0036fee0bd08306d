package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Rule — правило заглушки: если промпт содержит Contains, вернуть Reply или Err.
type Rule struct {
	Contains string
	Reply    string
	Err      error
}

// Stub — детерминированный Completer.
//
// Правила проверяются по порядку; первое совпадение определяет ответ.
// Если ни одно не подошло, возвращается Fallback (или эхо первой строки
// промпта, если Fallback пуст). Все промпты записываются.
type Stub struct {
	mu       sync.Mutex
	rules    []Rule
	Fallback string
	prompts  []string
}

// NewStub создаёт заглушку с правилами.
func NewStub(rules ...Rule) *Stub {
	return &Stub{rules: rules}
}

// On добавляет правило.
func (s *Stub) On(contains, reply string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Contains: contains, Reply: reply})
	return s
}

// Fail добавляет правило, возвращающее ошибку.
func (s *Stub) Fail(contains string, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Contains: contains, Err: err})
	return s
}

// Complete реализует Completer.
func (s *Stub) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)

	for _, r := range s.rules {
		if strings.Contains(prompt, r.Contains) {
			if r.Err != nil {
				return "", r.Err
			}
			return r.Reply, nil
		}
	}

	if s.Fallback != "" {
		return s.Fallback, nil
	}

	first, _, _ := strings.Cut(prompt, "\n")
	return fmt.Sprintf("stub: %s", first), nil
}

// Prompts возвращает все полученные промпты.
func (s *Stub) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls — количество вызовов.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
