package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/moodniko/niko-agent/internal/mood"
	"github.com/moodniko/niko-agent/internal/session"
)

func (r *Registry) registerBuiltins() {
	r.Register(&Tool{
		Name: "log_mood",
		Description: "Record the user's current mood. Call this whenever the user tells you how they are feeling. " +
			"Optionally record the kind of content they asked for at the same time.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mood": map[string]any{
					"type":        "string",
					"description": "The user's mood (e.g. sad, happy, anxious, calm, energetic, tired, stressed, frustrated, excited)",
				},
				"contentType": map[string]any{
					"type":        "string",
					"description": "Optional content type the user asked for (books, movies, music, podcasts, articles, videos)",
				},
			},
			"required": []string{"mood"},
		},
		Handler: r.handleLogMood,
	})

	r.Register(&Tool{
		Name: "get_content_recommendations",
		Description: "Fetch content recommendations matching the user's mood and preferred content type. " +
			"Call this once the user's mood is known and they have said what kind of content they want. " +
			"Call it again with the same arguments when the user asks for more.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mood": map[string]any{
					"type":        "string",
					"description": "The mood to match content against",
				},
				"contentType": map[string]any{
					"type":        "string",
					"description": "The kind of content to recommend (books, movies, music, podcasts, articles, videos)",
				},
			},
			"required": []string{"mood", "contentType"},
		},
		Handler: r.handleGetRecommendations,
	})

	r.Register(&Tool{
		Name: "get_mood_history",
		Description: "Look up the user's mood over the current conversation. " +
			"Use when the user asks what moods they have mentioned.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleGetMoodHistory,
	})

	r.Register(&Tool{
		Name: "analyze_mood_pattern",
		Description: "Analyze trends in the user's mood over time. " +
			"Use when the user asks about patterns in how they have been feeling.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleAnalyzeMoodPattern,
	})

	r.Register(&Tool{
		Name: "reset_conversation",
		Description: "Clear the conversation state and start fresh. " +
			"ONLY use when the user EXPLICITLY asks to start over or reset. " +
			"NEVER call this tool on your own initiative.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleResetConversation,
	})
}

// sessionID pulls the session identifier the agent injects into every
// tool call. It never comes from the model.
func sessionID(args map[string]any) (string, bool) {
	id, ok := args["sessionId"].(string)
	return id, ok && id != ""
}

func (r *Registry) handleLogMood(_ context.Context, args map[string]any) (string, error) {
	sid, ok := sessionID(args)
	if !ok {
		return failure("I lost track of our conversation. Could you tell me again how you're feeling?")
	}

	moodArg, _ := args["mood"].(string)
	moodArg = strings.ToLower(strings.TrimSpace(moodArg))
	if !mood.ValidMood(moodArg) {
		return failure(fmt.Sprintf("I don't recognize %q as a mood I can work with.", moodArg))
	}

	sess := r.sessions.Get(sid)
	update := session.Update{}
	if moodArg != sess.CurrentMood {
		// A mood change invalidates any previously chosen content type.
		update.Mood = session.String(moodArg)
		update.ContentType = session.String("")
		update.Stage = session.Int(session.StageMoodKnown)
	}

	contentType, _ := args["contentType"].(string)
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if mood.ValidContentType(contentType) {
		update.ContentType = session.String(contentType)
		update.Stage = session.Int(session.StageReady)
	}

	if update.Mood != nil || update.ContentType != nil {
		r.sessions.Update(sid, update)
	}
	sess = r.sessions.Get(sid)

	r.logger.Debug("mood logged", "session", sid, "mood", sess.CurrentMood, "content_type", sess.CurrentContentType)

	return jsonResult(map[string]any{
		"success":     true,
		"mood":        sess.CurrentMood,
		"contentType": sess.CurrentContentType,
		"message":     fmt.Sprintf("Mood recorded as %s.", sess.CurrentMood),
	})
}

func (r *Registry) handleGetRecommendations(ctx context.Context, args map[string]any) (string, error) {
	sid, ok := sessionID(args)
	if !ok {
		return failure("I lost track of our conversation. Could you tell me again how you're feeling?")
	}

	sess := r.sessions.Get(sid)

	// The session is authoritative. The model's arguments only fill in
	// when the session has nothing yet, so a stale or hallucinated
	// argument can never override what the user actually said.
	moodName := sess.CurrentMood
	if moodName == "" {
		if arg, _ := args["mood"].(string); mood.ValidMood(strings.ToLower(arg)) {
			moodName = strings.ToLower(arg)
		}
	}
	if moodName == "" {
		return failure("I need to know how you're feeling before I can recommend anything.")
	}

	contentType := sess.CurrentContentType
	if contentType == "" {
		if arg, _ := args["contentType"].(string); mood.ValidContentType(strings.ToLower(arg)) {
			contentType = strings.ToLower(arg)
		}
	}
	if contentType == "" {
		return failure("What kind of content would you like? Books, movies, music, podcasts, or videos?")
	}

	items, err := r.content.Fetch(ctx, moodName, mood.NormalizeContentType(contentType))
	if err != nil {
		r.logger.Warn("content fetch failed", "session", sid, "mood", moodName, "content_type", contentType, "error", err)
		return failure("I'm having trouble fetching content right now. Give me a moment and try again.")
	}
	if len(items) == 0 {
		return failure(fmt.Sprintf("I couldn't find any %s content for a %s mood right now.", contentType, moodName))
	}

	batch := r.tracker.NextBatch(sid, moodName, contentType, items, r.batchSize)

	r.logger.Debug("recommendations served",
		"session", sid,
		"mood", moodName,
		"content_type", contentType,
		"count", len(batch.Items),
		"has_more", batch.HasMore,
	)

	return jsonResult(map[string]any{
		"success":         true,
		"mood":            moodName,
		"contentType":     contentType,
		"recommendations": batch.Items,
		"hasMore":         batch.HasMore,
		"message":         fmt.Sprintf("Found %d %s picks for a %s mood.", len(batch.Items), contentType, moodName),
	})
}

func (r *Registry) handleGetMoodHistory(_ context.Context, args map[string]any) (string, error) {
	sid, ok := sessionID(args)
	if !ok {
		return failure("I lost track of our conversation.")
	}

	sess := r.sessions.Get(sid)
	if sess.CurrentMood == "" {
		return failure("You haven't told me how you're feeling yet this conversation.")
	}

	// Only the current conversation is tracked. Long-term mood journaling
	// needs persistent per-user storage that does not exist yet.
	return jsonResult(map[string]any{
		"success": true,
		"moods":   []string{sess.CurrentMood},
		"message": fmt.Sprintf("So far this conversation you've told me you're feeling %s. I only remember the current conversation.", sess.CurrentMood),
	})
}

func (r *Registry) handleAnalyzeMoodPattern(_ context.Context, args map[string]any) (string, error) {
	if _, ok := sessionID(args); !ok {
		return failure("I lost track of our conversation.")
	}

	return failure("I don't have enough mood history to spot a pattern. I only remember the current conversation.")
}

func (r *Registry) handleResetConversation(_ context.Context, args map[string]any) (string, error) {
	sid, ok := sessionID(args)
	if !ok {
		return failure("I lost track of our conversation.")
	}

	r.sessions.Reset(sid)
	r.tracker.ResetSession(sid)

	r.logger.Info("conversation reset", "session", sid)

	return jsonResult(map[string]any{
		"success": true,
		"message": "Conversation cleared. We're starting fresh, so tell me how you're feeling.",
	})
}
