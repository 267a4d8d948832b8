package prompts

import (
	"fmt"

	"github.com/moodniko/niko-agent/internal/session"
)

// SessionContext renders the per-turn state block appended to the
// system prompt. It tells the model what the conversation has already
// established so the model never re-asks for a known mood and never
// trusts its own memory over the session.
func SessionContext(sess *session.Session) string {
	switch sess.Stage {
	case session.StageMoodKnown:
		return fmt.Sprintf(
			"## Current Session\nThe user is feeling %s. No content type chosen yet. "+
				"Ask what kind of content they'd like, or fetch recommendations if they just told you.",
			sess.CurrentMood)
	case session.StageReady:
		return fmt.Sprintf(
			"## Current Session\nThe user is feeling %s and wants %s. "+
				"Use get_content_recommendations with mood %q and contentType %q. "+
				"If they ask for more, call it again with the same arguments.",
			sess.CurrentMood, sess.CurrentContentType, sess.CurrentMood, sess.CurrentContentType)
	default:
		return "## Current Session\nNo mood established yet. Find out how the user is feeling before recommending anything."
	}
}
