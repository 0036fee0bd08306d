package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/shaiso/hrm/internal/config"
)

// DefaultOpenAIModel — модель по умолчанию для OpenAI.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI — Completer поверх OpenAI Chat Completions.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAI создаёт клиент OpenAI. Дополнительные опции (например,
// option.WithBaseURL) передаются клиенту как есть.
func NewOpenAI(cfg config.LLM, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai: %w (OPENAI_API_KEY)", ErrMissingAPIKey)
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}, opts...)
	client := openai.NewClient(reqOpts...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{client: &client, model: model, maxTokens: cfg.MaxTokens}, nil
}

// Complete реализует Completer.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
