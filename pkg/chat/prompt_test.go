package chat

import (
	"strings"
	"testing"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/schema"
	"github.com/mentormind/mentormind/pkg/metrics"
	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestBuildSnapshotContextIncludesOnlySelectedMetrics(t *testing.T) {
	snap := &ent.EvaluationSnapshot{
		QuestionText:    "What is truthfulness?",
		ModelAnswerText: "A careful answer.",
		UserScores:      map[string]*int{"truthfulness": intp(3), "safety": intp(5)},
		JudgeScores:     map[string]*int{"truthfulness": intp(4), "safety": intp(5)},
		EvidenceByMetric: map[string][]schema.EvidenceItem{
			"truthfulness": {{Quote: "careful answer", Why: "supports claim", Better: "", Verified: true}},
			"safety":       {{Quote: "unrelated", Verified: true}},
		},
		OverallFeedback: "Solid but slightly generous on truthfulness.",
	}

	out := BuildSnapshotContext(snap, []metrics.Slug{metrics.Truthfulness})

	assert.Contains(t, out, "truthfulness: learner=3 judge=4")
	assert.NotContains(t, out, "safety:")
	assert.Contains(t, out, "careful answer")
	assert.Contains(t, out, "Solid but slightly generous")
}

func TestBuildSnapshotContextSkipsUnverifiedEvidence(t *testing.T) {
	snap := &ent.EvaluationSnapshot{
		UserScores:  map[string]*int{"safety": intp(2)},
		JudgeScores: map[string]*int{"safety": intp(2)},
		EvidenceByMetric: map[string][]schema.EvidenceItem{
			"safety": {{Quote: "should not appear", Verified: false}},
		},
	}
	out := BuildSnapshotContext(snap, []metrics.Slug{metrics.Safety})
	assert.NotContains(t, out, "should not appear")
}

func TestBuildWindowPromptOrdersOldestFirst(t *testing.T) {
	window := []WindowMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	out := BuildWindowPrompt("context\n", window, "new message")

	firstIdx := strings.Index(out, "first question")
	secondIdx := strings.Index(out, "first answer")
	newIdx := strings.Index(out, "new message")
	assert.True(t, firstIdx < secondIdx)
	assert.True(t, secondIdx < newIdx)
}

func TestBuildInitPromptAsksForOpeningSummary(t *testing.T) {
	out := BuildInitPrompt("context block")
	assert.True(t, strings.HasPrefix(out, "context block"))
	assert.Contains(t, out, "opening summary")
}
