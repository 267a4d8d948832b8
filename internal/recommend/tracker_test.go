package recommend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/moodniko/niko-agent/internal/content"
)

func makePool(n int) []content.Item {
	items := make([]content.Item, n)
	for i := range items {
		items[i] = content.Item{
			ID:          i + 1,
			Title:       fmt.Sprintf("Item %d", i+1),
			Description: fmt.Sprintf("Description %d", i+1),
		}
	}
	return items
}

func TestNextBatch_EmptyPool(t *testing.T) {
	tr := NewTracker()

	b := tr.NextBatch("s1", "sad", "books", nil, 5)
	if len(b.Items) != 0 {
		t.Errorf("items = %d, want 0", len(b.Items))
	}
	if b.HasMore {
		t.Error("HasMore = true for empty pool")
	}
}

func TestNextBatch_SevenItemCycle(t *testing.T) {
	tr := NewTracker()
	pool := makePool(7)

	// Call 1: items 1-5, more available.
	b1 := tr.NextBatch("s1", "sad", "books", pool, 5)
	if len(b1.Items) != 5 {
		t.Fatalf("call 1 items = %d, want 5", len(b1.Items))
	}
	if !b1.HasMore {
		t.Error("call 1 HasMore = false, want true")
	}
	if !strings.HasPrefix(b1.Items[0], "Item 1 - ") {
		t.Errorf("call 1 first item = %q", b1.Items[0])
	}

	// Call 2: items 6-7 only, nothing beyond.
	b2 := tr.NextBatch("s1", "sad", "books", pool, 5)
	if len(b2.Items) != 2 {
		t.Fatalf("call 2 items = %d, want 2", len(b2.Items))
	}
	if b2.HasMore {
		t.Error("call 2 HasMore = true, want false")
	}
	if !strings.HasPrefix(b2.Items[0], "Item 6 - ") {
		t.Errorf("call 2 first item = %q", b2.Items[0])
	}

	// Call 3: cycle resets, items 1-5 again.
	b3 := tr.NextBatch("s1", "sad", "books", pool, 5)
	if len(b3.Items) != 5 {
		t.Fatalf("call 3 items = %d, want 5", len(b3.Items))
	}
	if !strings.HasPrefix(b3.Items[0], "Item 1 - ") {
		t.Errorf("call 3 first item = %q, want cycle restart", b3.Items[0])
	}
}

func TestNextBatch_EveryItemExactlyOncePerCycle(t *testing.T) {
	tr := NewTracker()
	pool := makePool(23)

	seen := make(map[string]int)
	calls := (len(pool) + 4) / 5 // ceil(23/5) = 5
	for i := 0; i < calls; i++ {
		b := tr.NextBatch("s1", "happy", "music", pool, 5)
		for _, item := range b.Items {
			seen[item]++
		}
	}

	if len(seen) != len(pool) {
		t.Fatalf("distinct items = %d, want %d", len(seen), len(pool))
	}
	for item, count := range seen {
		if count != 1 {
			t.Errorf("item %q seen %d times in one cycle", item, count)
		}
	}
}

func TestNextBatch_KeysAreIsolated(t *testing.T) {
	tr := NewTracker()
	pool := makePool(3)

	tr.NextBatch("s1", "sad", "books", pool, 5)

	// Different mood, same session: fresh shown-set.
	b := tr.NextBatch("s1", "happy", "books", pool, 5)
	if len(b.Items) != 3 {
		t.Errorf("different mood items = %d, want full pool 3", len(b.Items))
	}

	// Different session, same key: fresh shown-set.
	b = tr.NextBatch("s2", "sad", "books", pool, 5)
	if len(b.Items) != 3 {
		t.Errorf("different session items = %d, want full pool 3", len(b.Items))
	}
}

func TestNextBatch_PreservesCandidateOrder(t *testing.T) {
	tr := NewTracker()
	pool := makePool(4)

	b := tr.NextBatch("s1", "calm", "podcasts", pool, 5)
	for i, item := range b.Items {
		want := fmt.Sprintf("Item %d - ", i+1)
		if !strings.HasPrefix(item, want) {
			t.Errorf("item[%d] = %q, want prefix %q", i, item, want)
		}
	}
}

func TestNextBatch_DefaultBatchSize(t *testing.T) {
	tr := NewTracker()
	pool := makePool(8)

	b := tr.NextBatch("s1", "sad", "books", pool, 0)
	if len(b.Items) != DefaultBatchSize {
		t.Errorf("items = %d, want default %d", len(b.Items), DefaultBatchSize)
	}
	if !b.HasMore {
		t.Error("HasMore = false, want true with 3 remaining")
	}
}

func TestResetSession_ClearsAllKeys(t *testing.T) {
	tr := NewTracker()
	pool := makePool(7)

	tr.NextBatch("s1", "sad", "books", pool, 5)
	tr.NextBatch("s1", "happy", "music", pool, 5)
	tr.ResetSession("s1")

	if got := tr.ShownCount("s1", "sad", "books"); got != 0 {
		t.Errorf("shown after reset = %d, want 0", got)
	}

	// Post-reset behavior matches a brand-new session.
	b := tr.NextBatch("s1", "sad", "books", pool, 5)
	if !strings.HasPrefix(b.Items[0], "Item 1 - ") {
		t.Errorf("first item after reset = %q", b.Items[0])
	}
}

func TestFormatItem_TruncatesLongDescriptions(t *testing.T) {
	long := strings.Repeat("x", 200)
	item := content.Item{Title: "Epic", Description: long}

	got := FormatItem(item)
	want := "Epic - " + strings.Repeat("x", 120) + "..."
	if got != want {
		t.Errorf("FormatItem length = %d, want %d", len(got), len(want))
	}

	short := content.Item{Title: "Brief", Description: "short enough"}
	if got := FormatItem(short); got != "Brief - short enough" {
		t.Errorf("FormatItem(short) = %q", got)
	}
}
