package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(30*time.Minute, 10)
}

func TestGet_CreatesFreshSession(t *testing.T) {
	s := newTestStore(t)

	sess := s.Get("alice")
	if sess.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", sess.UserID)
	}
	if sess.Stage != StageNew {
		t.Errorf("Stage = %d, want %d", sess.Stage, StageNew)
	}
	if sess.CurrentMood != "" || sess.CurrentContentType != "" {
		t.Errorf("fresh session has mood=%q type=%q, want unset", sess.CurrentMood, sess.CurrentContentType)
	}
	if len(sess.History) != 0 {
		t.Errorf("fresh session has %d history entries", len(sess.History))
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)

	first := s.Get("alice")
	first.CurrentMood = "happy"
	first.History = append(first.History, Turn{Role: RoleUser, Content: "hi"})

	second := s.Get("alice")
	if second.CurrentMood != "" {
		t.Error("mutating a returned session leaked into the store")
	}
	if len(second.History) != 0 {
		t.Error("mutating returned history leaked into the store")
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	s := newTestStore(t)

	s.Update("alice", Update{Mood: String("sad"), Stage: Int(StageMoodKnown)})

	sess := s.Get("alice")
	if sess.CurrentMood != "sad" {
		t.Errorf("mood = %q, want sad", sess.CurrentMood)
	}
	if sess.Stage != StageMoodKnown {
		t.Errorf("stage = %d, want %d", sess.Stage, StageMoodKnown)
	}

	// A later partial update must not clobber untouched fields.
	s.Update("alice", Update{ContentType: String("books"), Stage: Int(StageReady)})
	sess = s.Get("alice")
	if sess.CurrentMood != "sad" {
		t.Errorf("mood after second update = %q, want sad", sess.CurrentMood)
	}
	if sess.CurrentContentType != "books" {
		t.Errorf("content type = %q, want books", sess.CurrentContentType)
	}
}

func TestUpdate_ExplicitClear(t *testing.T) {
	s := newTestStore(t)

	s.Update("alice", Update{
		Mood:        String("sad"),
		ContentType: String("books"),
		Stage:       Int(StageReady),
	})
	// A new mood clears content type via an explicit empty-string write.
	s.Update("alice", Update{
		Mood:        String("anxious"),
		ContentType: String(""),
		Stage:       Int(StageMoodKnown),
	})

	sess := s.Get("alice")
	if sess.CurrentMood != "anxious" {
		t.Errorf("mood = %q, want anxious", sess.CurrentMood)
	}
	if sess.CurrentContentType != "" {
		t.Errorf("content type = %q, want cleared", sess.CurrentContentType)
	}
}

func TestAppendHistory_TruncatesToLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 12; i++ {
		s.AppendHistory("alice", RoleUser, fmt.Sprintf("message %d", i))
	}

	sess := s.Get("alice")
	if len(sess.History) != 10 {
		t.Fatalf("history length = %d, want 10", len(sess.History))
	}
	// Oldest two dropped; order preserved oldest-first.
	if sess.History[0].Content != "message 3" {
		t.Errorf("oldest retained = %q, want message 3", sess.History[0].Content)
	}
	if sess.History[9].Content != "message 12" {
		t.Errorf("newest retained = %q, want message 12", sess.History[9].Content)
	}
}

func TestReset_RemovesSession(t *testing.T) {
	s := newTestStore(t)

	s.Update("alice", Update{Mood: String("happy"), Stage: Int(StageMoodKnown)})
	s.AppendHistory("alice", RoleUser, "hello")
	s.Reset("alice")

	sess := s.Get("alice")
	if sess.Stage != StageNew {
		t.Errorf("stage after reset = %d, want %d", sess.Stage, StageNew)
	}
	if sess.CurrentMood != "" || sess.CurrentContentType != "" {
		t.Error("mood/content type survived reset")
	}
	if len(sess.History) != 0 {
		t.Error("history survived reset")
	}
}

func TestGet_ExpiryReinitializes(t *testing.T) {
	s := NewStore(30*time.Minute, 10)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Update("alice", Update{Mood: String("happy"), Stage: Int(StageMoodKnown)})
	s.AppendHistory("alice", RoleUser, "hello")

	// Just inside the window: session survives.
	s.now = func() time.Time { return base.Add(30 * time.Minute) }
	sess := s.Get("alice")
	if sess.CurrentMood != "happy" {
		t.Errorf("session expired too early, mood = %q", sess.CurrentMood)
	}

	// Past the window (measured from the last touch): fresh session.
	s.now = func() time.Time { return base.Add(61 * time.Minute) }
	sess = s.Get("alice")
	if sess.Stage != StageNew || sess.CurrentMood != "" || len(sess.History) != 0 {
		t.Errorf("expired session not reinitialized: stage=%d mood=%q history=%d",
			sess.Stage, sess.CurrentMood, len(sess.History))
	}
}

func TestValidate_StageInvariants(t *testing.T) {
	tests := []struct {
		name    string
		sess    Session
		wantErr bool
	}{
		{"fresh", Session{Stage: StageNew}, false},
		{"mood known", Session{Stage: StageMoodKnown, CurrentMood: "sad"}, false},
		{"ready", Session{Stage: StageReady, CurrentMood: "sad", CurrentContentType: "books"}, false},
		{"stage 2 no mood", Session{Stage: StageMoodKnown}, true},
		{"stage 3 no type", Session{Stage: StageReady, CurrentMood: "sad"}, true},
		{"stage 3 no mood", Session{Stage: StageReady, CurrentContentType: "books"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sess.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContextSummary(t *testing.T) {
	s := newTestStore(t)

	s.Update("alice", Update{
		Mood:        String("sad"),
		ContentType: String("books"),
		Stage:       Int(StageReady),
	})
	s.AppendHistory("alice", RoleUser, "I'm feeling sad")
	s.AppendHistory("alice", RoleAssistant, "I'm sorry to hear that.")

	summary := s.ContextSummary("alice")
	for _, want := range []string{
		"User's current mood: sad",
		"User wants: books",
		"Conversation stage: 3",
		"user: I'm feeling sad",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestStore_ConcurrentUsers(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n)
			for j := 0; j < 50; j++ {
				s.AppendHistory(userID, RoleUser, "hello")
				s.Update(userID, Update{Mood: String("calm"), Stage: Int(StageMoodKnown)})
				_ = s.Get(userID)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 20 {
		t.Errorf("sessions = %d, want 20", s.Len())
	}
}
