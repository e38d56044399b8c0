// Package evidence implements the five-stage quote verification algorithm
// (spec §4.2): it turns an LLM-claimed quote with possibly wrong offsets
// into a trustworthy, highlight-safe span against the original answer text.
package evidence

import (
	"strings"
)

// Item is a single evidence claim, before or after verification.
type Item struct {
	Quote              string `json:"quote"`
	Start              int    `json:"start"`
	End                int    `json:"end"`
	Why                string `json:"why"`
	Better             string `json:"better"`
	Verified           bool   `json:"verified"`
	HighlightAvailable bool   `json:"highlight_available"`
}

// Options bounds stage 3's anchor search (defaults mirror config.Defaults'
// EvidenceAnchorLen/EvidenceSearchWindow).
type Options struct {
	AnchorLen    int
	SearchWindow int
}

// DefaultOptions matches the built-in config defaults.
func DefaultOptions() Options {
	return Options{AnchorLen: 25, SearchWindow: 2000}
}

// Verify runs the five-stage algorithm against modelAnswer, returning item
// enriched with Verified/HighlightAvailable and possibly corrected offsets.
// First stage to succeed wins; Verify never errors — an unverifiable quote
// falls through to stage 5 with Verified=false.
func Verify(modelAnswer string, item Item, opts Options) Item {
	if opts.AnchorLen <= 0 {
		opts.AnchorLen = 25
	}
	if opts.SearchWindow <= 0 {
		opts.SearchWindow = 2000
	}

	if v, ok := verifyExactSlice(modelAnswer, item); ok {
		return v
	}
	if v, ok := verifySubstring(modelAnswer, item); ok {
		return v
	}
	if v, ok := verifyAnchors(modelAnswer, item, opts); ok {
		return v
	}
	if v, ok := verifyWhitespaceInsensitive(modelAnswer, item); ok {
		return v
	}
	return verifyFallback(item)
}

// stage 1: exact slice.
func verifyExactSlice(modelAnswer string, item Item) (Item, bool) {
	if item.Start < 0 || item.End < item.Start || item.End > len(modelAnswer) {
		return Item{}, false
	}
	if modelAnswer[item.Start:item.End] != item.Quote {
		return Item{}, false
	}
	item.Verified = true
	item.HighlightAvailable = true
	return item, true
}

// stage 2: substring search.
func verifySubstring(modelAnswer string, item Item) (Item, bool) {
	if item.Quote == "" {
		return Item{}, false
	}
	i := strings.Index(modelAnswer, item.Quote)
	if i < 0 {
		return Item{}, false
	}
	item.Start = i
	item.End = i + len(item.Quote)
	item.Verified = true
	item.HighlightAvailable = true
	return item, true
}

// stage 3: anchor search. Finds the head and tail of the quote separately
// and reconstructs a span, bounding the tail search so a later unrelated
// occurrence of the tail text cannot be matched.
func verifyAnchors(modelAnswer string, item Item, opts Options) (Item, bool) {
	q := item.Quote
	if len(q) == 0 {
		return Item{}, false
	}
	// Short quotes (shorter than 2x AnchorLen) give head/tail slices that
	// overlap within q itself; that's fine — each is still searched for
	// independently in modelAnswer, and a shorter quote only narrows the
	// anchors, never widens the search.
	anchorLen := opts.AnchorLen
	if anchorLen > len(q) {
		anchorLen = len(q)
	}
	head := q[:anchorLen]
	tail := q[len(q)-anchorLen:]

	h := strings.Index(modelAnswer, head)
	if h < 0 {
		return Item{}, false
	}

	windowEnd := h + len(q) + opts.SearchWindow
	if windowEnd > len(modelAnswer) {
		windowEnd = len(modelAnswer)
	}
	if windowEnd <= h {
		return Item{}, false
	}

	window := modelAnswer[h:windowEnd]
	tOffset := strings.Index(window, tail)
	if tOffset < 0 {
		return Item{}, false
	}
	t := h + tOffset

	item.Start = h
	item.End = t + len(tail)
	item.Verified = true
	item.HighlightAvailable = true
	return item, true
}

// stage 4: whitespace-insensitive match. Never updates offsets — frontends
// must not paint a highlight for a normalized-only match.
func verifyWhitespaceInsensitive(modelAnswer string, item Item) (Item, bool) {
	normQuote := normalizeWhitespace(item.Quote)
	if normQuote == "" {
		return Item{}, false
	}
	normAnswer := normalizeWhitespace(modelAnswer)
	if !strings.Contains(normAnswer, normQuote) {
		return Item{}, false
	}
	item.Verified = true
	item.HighlightAvailable = false
	return item, true
}

// stage 5: fallback, offsets preserved as supplied.
func verifyFallback(item Item) Item {
	item.Verified = false
	item.HighlightAvailable = false
	return item
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
