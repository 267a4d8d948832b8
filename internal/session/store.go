// Package session provides per-user conversational session storage.
//
// A session carries everything Niko knows about an in-progress
// conversation: the user's current mood, the content type they asked
// for, a stage marker, and a bounded transcript window. Sessions live
// in memory and expire lazily after a period of inactivity.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Conversation stages. The stage is a coarse progress marker used by
// the prompt builder and the intent extractor.
const (
	// StageNew means no mood has been established yet.
	StageNew = 1
	// StageMoodKnown means a mood is set but no content type.
	StageMoodKnown = 2
	// StageReady means both mood and content type are known.
	StageReady = 3
)

// Message roles in the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTimeout is the idle expiry applied when none is configured.
const DefaultTimeout = 30 * time.Minute

// DefaultHistoryLimit bounds the transcript window per session.
const DefaultHistoryLimit = 10

// Turn is a single transcript entry.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the state of a single user's conversation.
type Session struct {
	UserID             string    `json:"user_id"`
	CurrentMood        string    `json:"current_mood,omitempty"`
	CurrentContentType string    `json:"current_content_type,omitempty"`
	Stage              int       `json:"stage"`
	History            []Turn    `json:"history"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate checks the stage invariants. A violation indicates a bug in
// the extractor or a caller writing inconsistent updates; callers in
// production treat the missing field as unset rather than failing the
// turn.
func (s *Session) Validate() error {
	if s.Stage >= StageMoodKnown && s.CurrentMood == "" {
		return fmt.Errorf("session %s: stage %d with no mood", s.UserID, s.Stage)
	}
	if s.Stage == StageReady && s.CurrentContentType == "" {
		return fmt.Errorf("session %s: stage %d with no content type", s.UserID, s.Stage)
	}
	return nil
}

func (s *Session) copy() *Session {
	turns := make([]Turn, len(s.History))
	copy(turns, s.History)
	c := *s
	c.History = turns
	return &c
}

// Update is a partial session mutation. Nil fields are left untouched;
// non-nil fields overwrite, including overwriting with the empty string
// (used when a new mood clears the previous content type).
type Update struct {
	Mood        *string
	ContentType *string
	Stage       *int
}

// String returns pointer-to-string for building Update values inline.
func String(s string) *string { return &s }

// Int returns pointer-to-int for building Update values inline.
func Int(i int) *int { return &i }

// Store manages sessions keyed by user ID. All methods are safe for
// concurrent use across different users; callers wanting strict turn
// ordering for a single user must serialize their own calls.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	timeout      time.Duration
	historyLimit int

	// now is swappable in tests to drive expiry.
	now func() time.Time
}

// NewStore creates a session store. Non-positive timeout or
// historyLimit fall back to the package defaults.
func NewStore(timeout time.Duration, historyLimit int) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{
		sessions:     make(map[string]*Session),
		timeout:      timeout,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// get returns the live session for userID, creating a fresh one if it
// is absent or expired. Callers must hold the write lock.
func (s *Store) get(userID string) *Session {
	now := s.now()

	sess, ok := s.sessions[userID]
	if ok && now.Sub(sess.UpdatedAt) > s.timeout {
		// Expired: discard silently. The caller sees a brand-new session.
		delete(s.sessions, userID)
		ok = false
	}

	if !ok {
		sess = &Session{
			UserID:    userID,
			Stage:     StageNew,
			History:   []Turn{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.sessions[userID] = sess
	}

	return sess
}

// Get returns a copy of the session for userID, creating a fresh one
// (stage 1, empty history) if none exists or the existing one has
// expired. It never fails.
func (s *Store) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(userID).copy()
}

// Update merges the given fields into the session and refreshes
// UpdatedAt. Last writer wins; there is no optimistic concurrency.
func (s *Store) Update(userID string, u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(userID)
	if u.Mood != nil {
		sess.CurrentMood = *u.Mood
	}
	if u.ContentType != nil {
		sess.CurrentContentType = *u.ContentType
	}
	if u.Stage != nil {
		sess.Stage = *u.Stage
	}
	sess.UpdatedAt = s.now()
}

// AppendHistory appends a turn, truncates the transcript to the most
// recent historyLimit entries (oldest dropped first), and refreshes
// UpdatedAt.
func (s *Store) AppendHistory(userID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := s.get(userID)
	sess.History = append(sess.History, Turn{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if len(sess.History) > s.historyLimit {
		sess.History = sess.History[len(sess.History)-s.historyLimit:]
	}
	sess.UpdatedAt = now
}

// Reset removes the session entirely. The next Get reinitializes it.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of live sessions. Expired-but-unaccessed
// sessions still count; expiry is lazy.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ContextSummary renders the session state as plain key-value facts
// for inclusion in a model prompt.
func (s *Store) ContextSummary(userID string) string {
	sess := s.Get(userID)

	var parts []string
	if sess.CurrentMood != "" {
		parts = append(parts, "User's current mood: "+sess.CurrentMood)
	}
	if sess.CurrentContentType != "" {
		parts = append(parts, "User wants: "+sess.CurrentContentType)
	}
	parts = append(parts, fmt.Sprintf("Conversation stage: %d", sess.Stage))

	if len(sess.History) > 0 {
		parts = append(parts, "", "Recent conversation:")
		start := len(sess.History) - 3
		if start < 0 {
			start = 0
		}
		for _, turn := range sess.History[start:] {
			parts = append(parts, turn.Role+": "+turn.Content)
		}
	}

	return strings.Join(parts, "\n")
}
