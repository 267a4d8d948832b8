package prompts

import (
	"strings"
	"testing"

	"github.com/moodniko/niko-agent/internal/session"
)

func TestSessionContext(t *testing.T) {
	tests := []struct {
		name string
		sess session.Session
		want []string
	}{
		{
			name: "fresh session asks for mood",
			sess: session.Session{Stage: session.StageNew},
			want: []string{"No mood established"},
		},
		{
			name: "mood known asks for content type",
			sess: session.Session{Stage: session.StageMoodKnown, CurrentMood: "sad"},
			want: []string{"feeling sad", "content type"},
		},
		{
			name: "ready session names both",
			sess: session.Session{Stage: session.StageReady, CurrentMood: "happy", CurrentContentType: "music"},
			want: []string{"feeling happy", "wants music", "get_content_recommendations"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SessionContext(&tt.sess)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("context missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestBaseSystemPrompt(t *testing.T) {
	p := BaseSystemPrompt()
	for _, tool := range []string{"log_mood", "get_content_recommendations", "reset_conversation"} {
		if !strings.Contains(p, tool) {
			t.Errorf("system prompt does not mention %s", tool)
		}
	}
}
