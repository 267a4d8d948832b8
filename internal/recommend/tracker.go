// Package recommend implements session-scoped recommendation
// deduplication. For every (session, mood, content type) key it
// remembers which catalog items have already been delivered, so
// repeated "more" requests surface novel items until the pool is
// exhausted, then cycle back to the start.
package recommend

import (
	"fmt"
	"sync"

	"github.com/moodniko/niko-agent/internal/content"
)

// DefaultBatchSize is the number of recommendations returned per call.
const DefaultBatchSize = 5

// descriptionLimit caps item descriptions in formatted output.
const descriptionLimit = 120

// Batch is one delivery of recommendations.
type Batch struct {
	// Items are formatted "<title> - <description>" strings, in the
	// candidate pool's original relative order.
	Items []string
	// HasMore reports whether unseen candidates remained beyond this
	// batch at the time of the call.
	HasMore bool
}

// Tracker owns the shown-ID sets. Keys are isolated: concurrent calls
// for different sessions never contend on each other's state beyond
// the map lock.
type Tracker struct {
	mu sync.Mutex
	// shown maps sessionID -> "mood_contentType" -> set of item IDs.
	shown map[string]map[string]map[int]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		shown: make(map[string]map[string]map[int]struct{}),
	}
}

func trackingKey(mood, contentType string) string {
	return mood + "_" + contentType
}

// shownSet returns the live shown-set for the key, creating it lazily.
// Callers must hold t.mu.
func (t *Tracker) shownSet(sessionID, mood, contentType string) map[int]struct{} {
	session, ok := t.shown[sessionID]
	if !ok {
		session = make(map[string]map[int]struct{})
		t.shown[sessionID] = session
	}

	key := trackingKey(mood, contentType)
	set, ok := session[key]
	if !ok {
		set = make(map[int]struct{})
		session[key] = set
	}
	return set
}

// NextBatch returns up to batchSize candidates not yet shown for this
// (session, mood, contentType) key, preserving the candidates' original
// order, and marks them shown. When every candidate has been shown, the
// set is cleared and the cycle restarts from the pool's beginning, an
// explicit single retry, never unbounded. An empty candidate pool
// returns an empty batch immediately.
func (t *Tracker) NextBatch(sessionID, mood, contentType string, candidates []content.Item, batchSize int) Batch {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if len(candidates) == 0 {
		return Batch{Items: []string{}, HasMore: false}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.shownSet(sessionID, mood, contentType)

	var available []content.Item
	// At most one reset pass: after clearing, the filter over a
	// non-empty pool is guaranteed non-empty.
	for pass := 0; pass < 2; pass++ {
		available = available[:0]
		for _, item := range candidates {
			if _, seen := set[item.ID]; !seen {
				available = append(available, item)
			}
		}
		if len(available) > 0 {
			break
		}
		// Cycle exhausted: start over.
		clear(set)
	}

	batch := available
	if len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	items := make([]string, 0, len(batch))
	for _, item := range batch {
		set[item.ID] = struct{}{}
		items = append(items, FormatItem(item))
	}

	return Batch{
		Items:   items,
		HasMore: len(available) > batchSize,
	}
}

// ResetSession drops all shown-sets for a session, across every
// (mood, contentType) key.
func (t *Tracker) ResetSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.shown, sessionID)
}

// ShownCount returns how many items have been marked shown for a key.
// Used by the session state endpoint and tests.
func (t *Tracker) ShownCount(sessionID, mood, contentType string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.shown[sessionID]
	if !ok {
		return 0
	}
	return len(session[trackingKey(mood, contentType)])
}

// FormatItem renders a catalog item as a single recommendation line,
// truncating long descriptions.
func FormatItem(item content.Item) string {
	desc := item.Description
	if len(desc) > descriptionLimit {
		desc = desc[:descriptionLimit] + "..."
	}
	return fmt.Sprintf("%s - %s", item.Title, desc)
}
