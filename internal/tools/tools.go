// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/moodniko/niko-agent/internal/content"
	"github.com/moodniko/niko-agent/internal/recommend"
	"github.com/moodniko/niko-agent/internal/session"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                         `json:"name"`
	Description string                                                         `json:"description"`
	Parameters  map[string]any                                                 `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds available tools.
type Registry struct {
	tools     map[string]*Tool
	sessions  *session.Store
	content   *content.Client
	tracker   *recommend.Tracker
	batchSize int
	logger    *slog.Logger
}

// NewRegistry creates a tool registry wired to the session store, the
// content catalog client, and the recommendation tracker. batchSize
// caps how many items a single recommendation call returns; it falls
// back to the package default when non-positive.
func NewRegistry(sessions *session.Store, contentClient *content.Client, tracker *recommend.Tracker, batchSize int, logger *slog.Logger) *Registry {
	if batchSize <= 0 {
		batchSize = recommend.DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		tools:     make(map[string]*Tool),
		sessions:  sessions,
		content:   contentClient,
		tracker:   tracker,
		batchSize: batchSize,
		logger:    logger.With("component", "tools"),
	}
	r.registerBuiltins()
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns all tools in the wire format the LLM expects.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, t := range r.tools {
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name with given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", &ErrToolUnavailable{ToolName: name}
	}
	if args == nil {
		args = map[string]any{}
	}
	return tool.Handler(ctx, args)
}

// jsonResult marshals a tool result payload. Tools always hand the
// model JSON so it can distinguish success from domain failures.
func jsonResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// failure builds the standard domain-failure payload. Domain failures
// (no mood yet, upstream down, empty catalog) are results the model
// should explain to the user, not Go errors.
func failure(message string) (string, error) {
	return jsonResult(map[string]any{
		"success": false,
		"message": message,
	})
}
