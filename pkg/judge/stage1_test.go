package judge

import (
	"testing"

	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validStage1JSON = `{
  "independent_scores": {
    "truthfulness": {"score": 4, "rationale": "mostly accurate"},
    "helpfulness": {"score": 3, "rationale": "somewhat helpful"},
    "safety": {"score": 5, "rationale": "no issues"},
    "bias": {"score": 5, "rationale": "none detected"},
    "clarity": {"score": 4, "rationale": "clear"},
    "consistency": {"score": 4, "rationale": "consistent"},
    "efficiency": {"score": 3, "rationale": "verbose"},
    "robustness": {"score": 4, "rationale": "handles edge cases"}
  },
  "evidence": {
    "truthfulness": [{"quote": "cat sat", "start": 4, "end": 11, "why": "supports claim", "better": "n/a"}]
  }
}`

func TestParseStage1DirectJSON(t *testing.T) {
	result, err := ParseStage1(validStage1JSON, evidence.DefaultOptions(), "The cat sat on the mat.")
	require.NoError(t, err)
	require.Len(t, result.IndependentScores, 8)
	assert.Equal(t, 4, *result.IndependentScores["truthfulness"].Score)
	require.Len(t, result.Evidence["truthfulness"], 1)
	assert.True(t, result.Evidence["truthfulness"][0].Verified)
}

func TestParseStage1FencedBlock(t *testing.T) {
	wrapped := "Here is my analysis:\n```json\n" + validStage1JSON + "\n```\nThanks."
	result, err := ParseStage1(wrapped, evidence.DefaultOptions(), "The cat sat on the mat.")
	require.NoError(t, err)
	require.Len(t, result.IndependentScores, 8)
}

func TestParseStage1BalancedBraceFallback(t *testing.T) {
	// No fencing, but chatty prose before/after the object — direct parse
	// fails, fenced extraction finds nothing, brace counting must win.
	wrapped := "Sure, here's the result: " + validStage1JSON + " Let me know if you need anything else."
	result, err := ParseStage1(wrapped, evidence.DefaultOptions(), "The cat sat on the mat.")
	require.NoError(t, err)
	require.Len(t, result.IndependentScores, 8)
}

func TestParseStage1MissingSlugFails(t *testing.T) {
	missing := `{"independent_scores": {"truthfulness": {"score": 4, "rationale": "ok"}}, "evidence": {}}`
	_, err := ParseStage1(missing, evidence.DefaultOptions(), "answer")
	require.Error(t, err)
	var parseErr *Stage1ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseStage1ScoredWithoutRationaleFails(t *testing.T) {
	payload := `{"independent_scores": {
		"truthfulness": {"score": 4, "rationale": ""},
		"helpfulness": {"score": 3, "rationale": "x"},
		"safety": {"score": 3, "rationale": "x"},
		"bias": {"score": 3, "rationale": "x"},
		"clarity": {"score": 3, "rationale": "x"},
		"consistency": {"score": 3, "rationale": "x"},
		"efficiency": {"score": 3, "rationale": "x"},
		"robustness": {"score": 3, "rationale": "x"}
	}, "evidence": {}}`
	_, err := ParseStage1(payload, evidence.DefaultOptions(), "answer")
	require.Error(t, err)
}

func TestParseStage1NullScoreAllowedWithoutRationale(t *testing.T) {
	payload := `{"independent_scores": {
		"truthfulness": {"score": null, "rationale": ""},
		"helpfulness": {"score": 3, "rationale": "x"},
		"safety": {"score": 3, "rationale": "x"},
		"bias": {"score": 3, "rationale": "x"},
		"clarity": {"score": 3, "rationale": "x"},
		"consistency": {"score": 3, "rationale": "x"},
		"efficiency": {"score": 3, "rationale": "x"},
		"robustness": {"score": 3, "rationale": "x"}
	}, "evidence": {}}`
	result, err := ParseStage1(payload, evidence.DefaultOptions(), "answer")
	require.NoError(t, err)
	assert.Nil(t, result.IndependentScores["truthfulness"].Score)
}

func TestParseStage1EvidenceFailureIsIsolated(t *testing.T) {
	payload := `{"independent_scores": {
		"truthfulness": {"score": 4, "rationale": "x"},
		"helpfulness": {"score": 3, "rationale": "x"},
		"safety": {"score": 3, "rationale": "x"},
		"bias": {"score": 3, "rationale": "x"},
		"clarity": {"score": 3, "rationale": "x"},
		"consistency": {"score": 3, "rationale": "x"},
		"efficiency": {"score": 3, "rationale": "x"},
		"robustness": {"score": 3, "rationale": "x"}
	}, "evidence": "not-an-object"}`
	result, err := ParseStage1(payload, evidence.DefaultOptions(), "answer")
	require.NoError(t, err)
	assert.Nil(t, result.Evidence)
	assert.Len(t, result.IndependentScores, 8)
}
