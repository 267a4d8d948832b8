package mood

import (
	"log/slog"

	"github.com/moodniko/niko-agent/internal/session"
)

// Extractor converts raw user text plus current session state into a
// state-transition decision and writes the decision back to the
// session store. It is the only component that advances the
// conversational stage.
type Extractor struct {
	store  *session.Store
	logger *slog.Logger
}

// NewExtractor creates an extractor bound to a session store.
func NewExtractor(store *session.Store, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{store: store, logger: logger}
}

// Decision reports what the extractor concluded for one message.
// A zero Decision means no session mutation occurred.
type Decision struct {
	MoodChanged    bool
	Mood           Mood
	ContentTypeSet bool
	ContentType    ContentType
	Stage          int
}

// Extract applies the decision table:
//
//  1. A newly detected mood that differs from the session's current
//     mood wins: the mood is updated, the content type is overwritten
//     with whatever was detected alongside it (possibly nothing), and
//     the stage becomes 3 or 2 accordingly.
//  2. A content type on its own, with no mood keyword in the message,
//     advances an established session to stage 3.
//  3. Everything else leaves the session untouched: no keywords, the
//     same mood restated (with or without a content type alongside),
//     or a content type with no mood ever set.
func (e *Extractor) Extract(userID, text string) Decision {
	sess := e.store.Get(userID)

	detectedMood, moodFound := DetectMood(text)
	detectedType, typeFound := DetectContentType(text)

	var d Decision

	switch {
	case moodFound && string(detectedMood) != sess.CurrentMood:
		d.MoodChanged = true
		d.Mood = detectedMood
		d.Stage = session.StageMoodKnown

		// The new mood owns the content-type slot: it is overwritten,
		// not preserved, even when nothing new was detected.
		contentType := ""
		if typeFound {
			contentType = string(detectedType)
			d.ContentTypeSet = true
			d.ContentType = detectedType
			d.Stage = session.StageReady
		}

		e.store.Update(userID, session.Update{
			Mood:        session.String(string(detectedMood)),
			ContentType: session.String(contentType),
			Stage:       session.Int(d.Stage),
		})

	case typeFound && !moodFound && sess.CurrentMood != "":
		d.ContentTypeSet = true
		d.ContentType = detectedType
		d.Stage = session.StageReady

		e.store.Update(userID, session.Update{
			ContentType: session.String(string(detectedType)),
			Stage:       session.Int(session.StageReady),
		})
	}

	if d.MoodChanged || d.ContentTypeSet {
		e.logger.Debug("intent extracted",
			"user", userID,
			"mood", d.Mood,
			"content_type", d.ContentType,
			"stage", d.Stage,
		)

		if err := e.store.Get(userID).Validate(); err != nil {
			// Stage invariants only break if this decision table is
			// wrong. Log loudly and carry on; downstream treats the
			// missing field as unset.
			e.logger.Error("session invariant violated after extraction", "error", err)
		}
	}

	return d
}
