package llm

import (
	"context"
	"errors"
	"testing"
)

type stubClient struct {
	name    string
	pingErr error
}

func (s *stubClient) Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	return &ChatResponse{Model: s.name, Done: true}, nil
}

func (s *stubClient) Ping(ctx context.Context) error { return s.pingErr }

func TestMultiClient_Routing(t *testing.T) {
	ollama := &stubClient{name: "ollama"}
	anthropic := &stubClient{name: "anthropic"}

	m := NewMultiClient(ollama)
	m.AddProvider("anthropic", anthropic)
	m.AddPrefix("claude", "anthropic")

	tests := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-20250514", "anthropic"},
		{"claude-3-5-haiku-20241022", "anthropic"},
		{"qwen3:4b", "ollama"},
		{"llama3.2", "ollama"},
	}

	for _, tt := range tests {
		resp, err := m.Chat(context.Background(), tt.model, nil, nil)
		if err != nil {
			t.Fatalf("Chat(%q): %v", tt.model, err)
		}
		if resp.Model != tt.want {
			t.Errorf("model %q routed to %q, want %q", tt.model, resp.Model, tt.want)
		}
	}
}

func TestMultiClient_PrefixWithoutProvider(t *testing.T) {
	fallback := &stubClient{name: "fallback"}
	m := NewMultiClient(fallback)
	m.AddPrefix("claude", "anthropic") // provider never registered

	resp, err := m.Chat(context.Background(), "claude-sonnet-4-20250514", nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Model != "fallback" {
		t.Errorf("routed to %q, want fallback", resp.Model)
	}
}

func TestMultiClient_NoFallback(t *testing.T) {
	m := NewMultiClient(nil)
	if _, err := m.Chat(context.Background(), "unknown", nil, nil); err == nil {
		t.Fatal("expected error with no fallback")
	}
	if err := m.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error with no fallback")
	}
}

func TestMultiClient_PingUsesFallback(t *testing.T) {
	wantErr := errors.New("down")
	m := NewMultiClient(&stubClient{pingErr: wantErr})
	if err := m.Ping(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Ping = %v, want %v", err, wantErr)
	}
}
