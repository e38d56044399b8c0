package evidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyExactSlice(t *testing.T) {
	answer := "The cat sat on the mat."
	item := Item{Quote: "cat sat", Start: 4, End: 11}

	got := Verify(answer, item, DefaultOptions())

	require.True(t, got.Verified)
	assert.True(t, got.HighlightAvailable)
	assert.Equal(t, answer[got.Start:got.End], got.Quote)
}

func TestVerifySubstringWithWrongOffsets(t *testing.T) {
	answer := "The cat sat on the mat."
	item := Item{Quote: "sat on the mat", Start: 0, End: 3}

	got := Verify(answer, item, DefaultOptions())

	require.True(t, got.Verified)
	assert.True(t, got.HighlightAvailable)
	assert.Equal(t, "sat on the mat", answer[got.Start:got.End])
}

func TestVerifyAnchorSearchBridgesGap(t *testing.T) {
	head := strings.Repeat("a", 25)
	actualMiddle := strings.Repeat("X", 50)
	tail := strings.Repeat("b", 25)
	answer := "prefix " + head + actualMiddle + tail + " suffix"
	// The LLM misremembered the middle of the quote, so a direct substring
	// search fails, but the head/tail anchors still locate the real span.
	quote := head + "wrong middle text here" + tail

	item := Item{Quote: quote, Start: -1, End: -1}
	got := Verify(answer, item, DefaultOptions())

	require.True(t, got.Verified)
	assert.True(t, got.HighlightAvailable)
	assert.Equal(t, head+actualMiddle+tail, answer[got.Start:got.End])
}

func TestVerifyAnchorSearchHandlesShortDriftedQuote(t *testing.T) {
	// Quote is 30 chars, inside the AnchorLen*2-1 (49) gap where head and
	// tail slices necessarily overlap within the quote itself. They're
	// still independently searched for in modelAnswer, so a drifted quote
	// in this range must still reach anchor search rather than bail out.
	quote := strings.Repeat("A", 15) + strings.Repeat("B", 15)
	head := quote[:25]
	tail := quote[5:30]
	answer := "prefix " + head + "-gap-filler-xyz-" + tail + " suffix"

	item := Item{Quote: quote, Start: -1, End: -1}
	got := Verify(answer, item, DefaultOptions())

	require.True(t, got.Verified)
	assert.True(t, got.HighlightAvailable)
	assert.Equal(t, head+"-gap-filler-xyz-"+tail, answer[got.Start:got.End])
}

func TestVerifyAnchorSearchRespectsBoundedWindow(t *testing.T) {
	head := strings.Repeat("a", 25)
	tail := strings.Repeat("b", 25)
	// tail's only occurrence in the text is far beyond the bounded search
	// window, so the anchor stage must fail to find it there and fall
	// through rather than matching a later unrelated occurrence.
	answer := head + strings.Repeat("z", 5000) + tail
	quote := head + strings.Repeat("Q", 10) + tail

	opts := Options{AnchorLen: 25, SearchWindow: 100}
	got := Verify(answer, Item{Quote: quote, Start: -1, End: -1}, opts)

	assert.False(t, got.HighlightAvailable)
}

func TestVerifyWhitespaceInsensitiveDoesNotUpdateOffsets(t *testing.T) {
	answer := "The   cat    sat\non the mat."
	item := Item{Quote: "The cat sat on the mat.", Start: 0, End: 5}

	got := Verify(answer, item, DefaultOptions())

	require.True(t, got.Verified)
	assert.False(t, got.HighlightAvailable)
	assert.Equal(t, 0, got.Start)
	assert.Equal(t, 5, got.End)
}

func TestVerifyFallbackWhenUnmatchable(t *testing.T) {
	answer := "completely unrelated text"
	item := Item{Quote: "nothing like this exists here", Start: 0, End: 5}

	got := Verify(answer, item, DefaultOptions())

	assert.False(t, got.Verified)
	assert.False(t, got.HighlightAvailable)
}

func TestVerifyRejectsOutOfBoundsExactSlice(t *testing.T) {
	answer := "short"
	item := Item{Quote: "short", Start: 0, End: 100}

	got := Verify(answer, item, DefaultOptions())

	// Falls through to substring search and still verifies, since the
	// quote does appear, just not at the claimed offsets.
	assert.True(t, got.Verified)
	assert.Equal(t, 0, got.Start)
	assert.Equal(t, 5, got.End)
}

func TestProcessTalliesAcrossMetrics(t *testing.T) {
	answer := "The cat sat on the mat."
	byMetric := ByMetric{
		"truthfulness": {{Quote: "cat sat", Start: 4, End: 11}},
		"helpfulness":  {{Quote: "not present anywhere", Start: 0, End: 5}},
	}

	out := Process(answer, byMetric, DefaultOptions())

	require.Len(t, out, 2)
	assert.True(t, out["truthfulness"][0].Verified)
	assert.False(t, out["helpfulness"][0].Verified)
}

func TestProcessNilPayloadPassesThrough(t *testing.T) {
	assert.Nil(t, Process("answer", nil, DefaultOptions()))
}
