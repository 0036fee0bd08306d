package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shaiso/hrm/internal/config"
)

// DefaultAnthropicModel — модель по умолчанию для Anthropic.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// Anthropic — Completer поверх Anthropic Messages API.
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic создаёт клиент Anthropic.
func NewAnthropic(cfg config.LLM, opts ...option.RequestOption) (*Anthropic, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("anthropic: %w (ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}, opts...)
	client := anthropic.NewClient(reqOpts...)

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Anthropic{client: &client, model: model, maxTokens: maxTokens}, nil
}

// Complete реализует Completer.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
