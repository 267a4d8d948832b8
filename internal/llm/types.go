package llm

import (
	"log/slog"
	"time"
)

// LevelTrace is the level used for full payload dumps, below debug.
const LevelTrace = slog.Level(-8)

// Message is one chat turn in OpenAI wire shape, which both providers
// translate from at their boundary.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on tool-role turns
}

// ToolCall is a tool invocation requested by the model. The ID is
// provider-assigned; Anthropic needs it back for tool_result
// correlation, Ollama usually leaves it empty.
type ToolCall struct {
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

// NewToolCall builds a ToolCall, papering over the anonymous struct.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	var tc ToolCall
	tc.ID = id
	tc.Function.Name = name
	tc.Function.Arguments = args
	return tc
}

// ChatResponse is the provider-neutral result of one Chat call.
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message
	Done      bool

	InputTokens  int
	OutputTokens int

	// Populated when the provider reports timing (Ollama does).
	TotalDuration time.Duration
	EvalDuration  time.Duration
}
