// Package mood defines Niko's mood and content-type vocabulary and the
// keyword-based intent extractor that drives session state transitions.
package mood

import "strings"

// Mood is one of the fixed emotional states Niko recognizes.
type Mood string

// The recognized moods. These are the only values accepted by the
// recommendation tools.
const (
	MoodHappy      Mood = "happy"
	MoodSad        Mood = "sad"
	MoodAnxious    Mood = "anxious"
	MoodCalm       Mood = "calm"
	MoodEnergetic  Mood = "energetic"
	MoodTired      Mood = "tired"
	MoodStressed   Mood = "stressed"
	MoodContent    Mood = "content"
	MoodFrustrated Mood = "frustrated"
	MoodExcited    Mood = "excited"
)

// Moods lists every recognized mood, in canonical order.
var Moods = []Mood{
	MoodHappy, MoodSad, MoodAnxious, MoodCalm, MoodEnergetic,
	MoodTired, MoodStressed, MoodContent, MoodFrustrated, MoodExcited,
}

// moodKeywords is the detection list, scanned in order: the first list
// entry found anywhere in the text wins, regardless of position. The
// order is part of the observable contract. "content" is deliberately
// absent: as a substring it collides with "content type", "contents",
// and similar phrasing, so it is only reachable through the tool enum,
// never through free-text detection.
var moodKeywords = []Mood{
	MoodSad, MoodHappy, MoodAnxious, MoodCalm, MoodEnergetic,
	MoodTired, MoodStressed, MoodFrustrated, MoodExcited,
}

// ValidMood reports whether s is a recognized mood value.
func ValidMood(s string) bool {
	for _, m := range Moods {
		if string(m) == s {
			return true
		}
	}
	return false
}

// ContentType is one of the fixed media categories users can request.
type ContentType string

// The recognized content types, as users phrase them.
const (
	TypeBooks    ContentType = "books"
	TypeMusic    ContentType = "music"
	TypeVideos   ContentType = "videos"
	TypePodcasts ContentType = "podcasts"
	TypeArticles ContentType = "articles"
	TypeMovies   ContentType = "movies"
)

// ContentTypes lists every recognized content type. The order doubles
// as the detection priority for free-text scanning.
var ContentTypes = []ContentType{
	TypeBooks, TypeMusic, TypeVideos, TypePodcasts, TypeArticles, TypeMovies,
}

// ValidContentType reports whether s is a recognized content type.
func ValidContentType(s string) bool {
	for _, c := range ContentTypes {
		if string(c) == s {
			return true
		}
	}
	return false
}

// contentTypeAPIMap translates user-facing content types into the
// categories the Moodniko API indexes on. Articles are served from the
// book catalog and videos from the movie catalog upstream.
var contentTypeAPIMap = map[string]string{
	"books":    "book",
	"music":    "music",
	"videos":   "movie",
	"podcasts": "podcast",
	"articles": "book",
	"movies":   "movie",
}

// NormalizeContentType maps a user-facing content type to the value the
// content API expects. Unrecognized values pass through lowercased so
// the API can reject them itself.
func NormalizeContentType(contentType string) string {
	lower := strings.ToLower(contentType)
	if mapped, ok := contentTypeAPIMap[lower]; ok {
		return mapped
	}
	return lower
}

// DetectMood scans text for a mood keyword. Matching is lowercase
// substring containment: a keyword embedded in a longer word still
// matches. This is an accepted approximation kept for behavioral
// compatibility; do not switch to tokenized matching without revisiting
// the contract in the package tests.
func DetectMood(text string) (Mood, bool) {
	lower := strings.ToLower(text)
	for _, m := range moodKeywords {
		if strings.Contains(lower, string(m)) {
			return m, true
		}
	}
	return "", false
}

// DetectContentType scans text for a content-type keyword, with the
// same substring semantics and list-order tie-break as DetectMood.
func DetectContentType(text string) (ContentType, bool) {
	lower := strings.ToLower(text)
	for _, c := range ContentTypes {
		if strings.Contains(lower, string(c)) {
			return c, true
		}
	}
	return "", false
}
