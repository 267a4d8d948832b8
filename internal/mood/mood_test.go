package mood

import "testing"

func TestDetectMood(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  Mood
		found bool
	}{
		{"plain sad", "I'm feeling really sad today", MoodSad, true},
		{"uppercase", "I AM SO HAPPY", MoodHappy, true},
		{"no keyword", "tell me something", "", false},
		{"empty", "", "", false},
		// List order is the tie-break: "sad" precedes "happy" in the
		// keyword list even when "happy" appears first in the text.
		{"list order wins", "happy exterior, sad inside", MoodSad, true},
		// Substring semantics are intentional: embedded keywords match.
		{"embedded keyword", "I watched unhappy hour", MoodHappy, true},
		{"stressed", "work has me stressed out", MoodStressed, true},
		{"anxious", "actually, I'm anxious now", MoodAnxious, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DetectMood(tt.text)
			if found != tt.found || got != tt.want {
				t.Errorf("DetectMood(%q) = (%q, %v), want (%q, %v)",
					tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestDetectMood_ContentNotDetectable(t *testing.T) {
	// "content" the mood is excluded from free-text detection because
	// as a substring it collides with "content type" phrasing.
	if m, found := DetectMood("what content types do you have"); found {
		t.Errorf("unexpected mood %q from content-type phrasing", m)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  ContentType
		found bool
	}{
		{"books", "books", TypeBooks, true},
		{"in sentence", "could you recommend some podcasts?", TypePodcasts, true},
		{"uppercase", "MOVIES please", TypeMovies, true},
		{"none", "surprise me", "", false},
		// "books" precedes "articles" in the list.
		{"list order wins", "articles or books, either way", TypeBooks, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DetectContentType(tt.text)
			if found != tt.found || got != tt.want {
				t.Errorf("DetectContentType(%q) = (%q, %v), want (%q, %v)",
					tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"books", "book"},
		{"articles", "book"},
		{"videos", "movie"},
		{"movies", "movie"},
		{"podcasts", "podcast"},
		{"music", "music"},
		{"Books", "book"},
		{"opera", "opera"}, // unknown passes through lowercased
		{"OPERA", "opera"},
	}

	for _, tt := range tests {
		if got := NormalizeContentType(tt.in); got != tt.want {
			t.Errorf("NormalizeContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidMood(t *testing.T) {
	if !ValidMood("content") {
		t.Error("content is a valid mood even though it is not free-text detectable")
	}
	if ValidMood("melancholy") {
		t.Error("melancholy should not be a valid mood")
	}
}

func TestValidContentType(t *testing.T) {
	if !ValidContentType("podcasts") {
		t.Error("podcasts should be valid")
	}
	if ValidContentType("podcast") {
		t.Error("normalized API values are not user-facing content types")
	}
}
