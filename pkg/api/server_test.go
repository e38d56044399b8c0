package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mentormind/mentormind/pkg/metrics"
)

func TestValidateEvaluationScores(t *testing.T) {
	fullScore := func(n int) *int { return &n }

	validEntries := func() map[string]ScoreAndReason {
		m := make(map[string]ScoreAndReason, len(metrics.All))
		for _, slug := range metrics.All {
			m[string(slug)] = ScoreAndReason{Score: fullScore(4), Reasoning: "looks solid"}
		}
		return m
	}

	t.Run("all eight slugs scored is valid", func(t *testing.T) {
		out, err := validateEvaluationScores(validEntries())
		assert.NoError(t, err)
		assert.Len(t, out, len(metrics.All))
	})

	t.Run("null score with empty reasoning is valid", func(t *testing.T) {
		entries := validEntries()
		entries[string(metrics.Bias)] = ScoreAndReason{Score: nil, Reasoning: ""}
		_, err := validateEvaluationScores(entries)
		assert.NoError(t, err)
	})

	t.Run("missing entry rejected", func(t *testing.T) {
		entries := validEntries()
		delete(entries, string(metrics.Safety))
		_, err := validateEvaluationScores(entries)
		assert.Error(t, err)
	})

	t.Run("out of range score rejected", func(t *testing.T) {
		entries := validEntries()
		entries[string(metrics.Clarity)] = ScoreAndReason{Score: fullScore(6), Reasoning: "x"}
		_, err := validateEvaluationScores(entries)
		assert.Error(t, err)
	})

	t.Run("scored entry without reasoning rejected", func(t *testing.T) {
		entries := validEntries()
		entries[string(metrics.Helpfulness)] = ScoreAndReason{Score: fullScore(3), Reasoning: ""}
		_, err := validateEvaluationScores(entries)
		assert.Error(t, err)
	})

	t.Run("null score with non-empty reasoning rejected", func(t *testing.T) {
		entries := validEntries()
		entries[string(metrics.Efficiency)] = ScoreAndReason{Score: nil, Reasoning: "shouldn't be here"}
		_, err := validateEvaluationScores(entries)
		assert.Error(t, err)
	})
}

func TestParsePositiveIntOr(t *testing.T) {
	assert.Equal(t, 20, parsePositiveIntOr("", 20))
	assert.Equal(t, 5, parsePositiveIntOr("5", 20))
	assert.Equal(t, 20, parsePositiveIntOr("not-a-number", 20))
	assert.Equal(t, 20, parsePositiveIntOr("-1", 20))
	assert.Equal(t, 20, parsePositiveIntOr("0", 20))
}

