package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/shaiso/hrm/internal/config"
)

// DefaultGeminiModel — модель по умолчанию для Gemini.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini — Completer поверх Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini создаёт клиент Gemini.
func NewGemini(ctx context.Context, cfg config.LLM, opts ...func(*genai.ClientConfig)) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini: %w (GEMINI_API_KEY)", ErrMissingAPIKey)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &Gemini{client: client, model: model}, nil
}

// Complete реализует Completer.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
