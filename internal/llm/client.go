// Package llm abstracts the chat model backends the agent can talk
// to: a local Ollama server, the Anthropic API, or both behind a
// prefix-routing MultiClient.
package llm

import "context"

// Client is one model backend.
type Client interface {
	// Chat runs a single completion round with optional tool
	// definitions in OpenAI wire shape.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
