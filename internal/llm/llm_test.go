package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/shaiso/hrm/internal/config"
)

// --- Stub Tests ---

func TestStub_RulesInOrder(t *testing.T) {
	stub := NewStub().
		On("plan", "Step 1: allocate").
		On("Execute", "Done")

	got, err := stub.Complete(context.Background(), "Create a plan for X")
	if err != nil || got != "Step 1: allocate" {
		t.Errorf("expected plan reply, got %q (%v)", got, err)
	}

	got, err = stub.Complete(context.Background(), "Execute the following task")
	if err != nil || got != "Done" {
		t.Errorf("expected Done, got %q (%v)", got, err)
	}

	if stub.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", stub.Calls())
	}
}

func TestStub_Fail(t *testing.T) {
	boom := errors.New("quota exceeded")
	stub := NewStub().Fail("plan", boom)

	_, err := stub.Complete(context.Background(), "make a plan")
	if !errors.Is(err, boom) {
		t.Errorf("expected quota error, got %v", err)
	}
}

func TestStub_FallbackEcho(t *testing.T) {
	stub := NewStub()

	got, _ := stub.Complete(context.Background(), "first line\nsecond line")
	if got != "stub: first line" {
		t.Errorf("unexpected echo %q", got)
	}

	stub.Fallback = "fixed"
	got, _ = stub.Complete(context.Background(), "anything")
	if got != "fixed" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestStub_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewStub().Complete(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// --- Instrument Tests ---

func TestInstrument_EmptyCompletionPassesThrough(t *testing.T) {
	c := Instrument("stub", NewStub().On("x", ""), 0)

	got, err := c.Complete(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected empty completion to succeed, got %v", err)
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "late", nil
	}
}

func TestInstrument_Timeout(t *testing.T) {
	c := Instrument("slow", slowCompleter{}, 20*time.Millisecond)

	_, err := c.Complete(context.Background(), "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// --- Factory Tests ---

func TestNew_Stub(t *testing.T) {
	c, err := New(context.Background(), config.LLM{Provider: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Complete(context.Background(), "hello")
	if err != nil || got == "" {
		t.Errorf("expected non-empty stub reply, got %q (%v)", got, err)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLM{Provider: "watson"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNew_MissingKeys(t *testing.T) {
	for _, provider := range []string{"gemini", "openai", "anthropic"} {
		_, err := New(context.Background(), config.LLM{Provider: provider})
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("%s: expected ErrMissingAPIKey, got %v", provider, err)
		}
	}
}

// --- Provider Tests (httptest) ---

func TestAnthropic_Complete(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5-20251001",
			"content": [{"type": "text", "text": "Step 1: allocate"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	c, err := NewAnthropic(config.LLM{AnthropicAPIKey: "test", MaxTokens: 100},
		anthropicopt.WithBaseURL(server.URL),
		anthropicopt.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Complete(context.Background(), "plan this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Step 1: allocate" {
		t.Errorf("unexpected completion %q", got)
	}
	if received["model"] != DefaultAnthropicModel {
		t.Errorf("expected default model, got %v", received["model"])
	}
}

func TestOpenAI_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Done"},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer server.Close()

	c, err := NewOpenAI(config.LLM{OpenAIAPIKey: "test"},
		openaiopt.WithBaseURL(server.URL),
		openaiopt.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Complete(context.Background(), "execute")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Done" {
		t.Errorf("unexpected completion %q", got)
	}
}

func TestOpenAI_NoChoicesIsEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": []
		}`))
	}))
	defer server.Close()

	c, err := NewOpenAI(config.LLM{OpenAIAPIKey: "test"},
		openaiopt.WithBaseURL(server.URL),
		openaiopt.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Complete(context.Background(), "execute")
	if err != nil || got != "" {
		t.Errorf("expected empty text without error, got %q (%v)", got, err)
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"internal","type":"server_error"}}`))
	}))
	defer server.Close()

	c, err := NewOpenAI(config.LLM{OpenAIAPIKey: "test"},
		openaiopt.WithBaseURL(server.URL),
		openaiopt.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Complete(context.Background(), "execute"); err == nil {
		t.Error("expected error for 500 response")
	}
}
