// Package agent orchestrates a conversation turn: intent extraction,
// model calls, tool execution, and transcript bookkeeping.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/moodniko/niko-agent/internal/archive"
	"github.com/moodniko/niko-agent/internal/llm"
	"github.com/moodniko/niko-agent/internal/mood"
	"github.com/moodniko/niko-agent/internal/prompts"
	"github.com/moodniko/niko-agent/internal/recommend"
	"github.com/moodniko/niko-agent/internal/session"
	"github.com/moodniko/niko-agent/internal/tools"
)

// maxToolRounds bounds how many model/tool iterations a single turn may
// take before the loop forces a final answer.
const maxToolRounds = 5

// Loop is the conversation engine. One Loop serves all users; state
// per user lives in the session store.
type Loop struct {
	llm       llm.Client
	model     string
	sessions  *session.Store
	extractor *mood.Extractor
	registry  *tools.Registry
	tracker   *recommend.Tracker
	archive   *archive.Store // nil disables transcript archiving
	logger    *slog.Logger

	// mu guards userLocks. Each user gets a mutex so turns for the
	// same user serialize while different users proceed in parallel.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewLoop creates the conversation engine. archiveStore may be nil.
func NewLoop(client llm.Client, model string, sessions *session.Store, extractor *mood.Extractor, registry *tools.Registry, tracker *recommend.Tracker, archiveStore *archive.Store, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		llm:       client,
		model:     model,
		sessions:  sessions,
		extractor: extractor,
		registry:  registry,
		tracker:   tracker,
		archive:   archiveStore,
		logger:    logger.With("component", "agent"),
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (l *Loop) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.userLocks[userID] = lock
	}
	return lock
}

// Chat processes one user message and returns Niko's reply. A model
// failure never fails the turn; the user gets a canned retry prompt
// and the transcript stays consistent.
func (l *Loop) Chat(ctx context.Context, userID, message string) (string, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	l.sessions.AppendHistory(userID, session.RoleUser, message)

	decision := l.extractor.Extract(userID, message)
	sess := l.sessions.Get(userID)

	l.logger.Debug("turn started",
		"user", userID,
		"stage", sess.Stage,
		"mood", sess.CurrentMood,
		"content_type", sess.CurrentContentType,
		"mood_changed", decision.MoodChanged,
	)

	reply := l.converse(ctx, userID, sess)

	l.sessions.AppendHistory(userID, session.RoleAssistant, reply)
	l.archiveTurns(userID, message, reply)

	return reply, nil
}

// converse runs the model/tool iteration until the model produces a
// final text answer or the round budget runs out.
func (l *Loop) converse(ctx context.Context, userID string, sess *session.Session) string {
	messages := l.buildMessages(sess)
	toolDefs := l.registry.List()

	var lastText string
	for round := 0; round < maxToolRounds; round++ {
		resp, err := l.llm.Chat(ctx, l.model, messages, toolDefs)
		if err != nil {
			l.logger.Error("model call failed", "user", userID, "round", round, "error", err)
			return prompts.FallbackReply
		}

		if len(resp.Message.ToolCalls) == 0 {
			if resp.Message.Content == "" {
				l.logger.Warn("model returned empty response", "user", userID, "round", round)
				return prompts.EmptyResponseFallback
			}
			return resp.Message.Content
		}

		if resp.Message.Content != "" {
			lastText = resp.Message.Content
		}
		messages = append(messages, resp.Message)

		for _, tc := range resp.Message.ToolCalls {
			messages = append(messages, l.runTool(ctx, userID, tc))
		}
	}

	l.logger.Warn("tool round budget exhausted", "user", userID, "rounds", maxToolRounds)
	if lastText != "" {
		return lastText
	}
	return prompts.FallbackReply
}

// runTool executes a single tool call and wraps the outcome as a tool
// message. The session ID is injected server-side so the model can
// never act on another user's session.
func (l *Loop) runTool(ctx context.Context, userID string, tc llm.ToolCall) llm.Message {
	args := make(map[string]any, len(tc.Function.Arguments)+1)
	for k, v := range tc.Function.Arguments {
		args[k] = v
	}
	args["sessionId"] = userID

	l.logger.Debug("executing tool", "user", userID, "tool", tc.Function.Name)

	result, err := l.registry.Execute(ctx, tc.Function.Name, args)
	if err != nil {
		l.logger.Warn("tool execution failed", "user", userID, "tool", tc.Function.Name, "error", err)
		result = fmt.Sprintf(`{"success": false, "message": %q}`, err.Error())
	}

	return llm.Message{
		Role:       "tool",
		Content:    result,
		ToolCallID: tc.ID,
	}
}

// buildMessages assembles the model conversation: persona, the current
// session state block, then the transcript window. The transcript
// already ends with the user's latest message.
func (l *Loop) buildMessages(sess *session.Session) []llm.Message {
	messages := make([]llm.Message, 0, len(sess.History)+2)
	messages = append(messages,
		llm.Message{Role: "system", Content: prompts.BaseSystemPrompt()},
		llm.Message{Role: "system", Content: prompts.SessionContext(sess)},
	)
	for _, turn := range sess.History {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// archiveTurns persists the completed exchange. Archive failures are
// logged and swallowed; the reply has already been produced.
func (l *Loop) archiveTurns(userID, userMessage, reply string) {
	if l.archive == nil {
		return
	}
	sess := l.sessions.Get(userID)
	if err := l.archive.Record(userID, session.RoleUser, userMessage, sess.CurrentMood, sess.CurrentContentType); err != nil {
		l.logger.Warn("archive user turn failed", "user", userID, "error", err)
		return
	}
	if err := l.archive.Record(userID, session.RoleAssistant, reply, sess.CurrentMood, sess.CurrentContentType); err != nil {
		l.logger.Warn("archive assistant turn failed", "user", userID, "error", err)
	}
}

// ResetSession clears all live state for a user: session, shown-item
// tracking, everything except the durable archive.
func (l *Loop) ResetSession(userID string) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	l.sessions.Reset(userID)
	l.tracker.ResetSession(userID)
	l.logger.Info("session reset", "user", userID)
}

// SessionState returns a copy of the user's current session.
func (l *Loop) SessionState(userID string) *session.Session {
	return l.sessions.Get(userID)
}

// Ping reports whether the model backend is reachable.
func (l *Loop) Ping(ctx context.Context) error {
	return l.llm.Ping(ctx)
}
