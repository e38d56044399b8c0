package judge

import (
	"testing"

	"github.com/mentormind/mentormind/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestVerdictOfClassification(t *testing.T) {
	tests := []struct {
		name string
		u, j *int
		want Verdict
	}{
		{"aligned", intp(4), intp(4), VerdictAligned},
		{"over_estimated", intp(4), intp(3), VerdictOverEstimated},
		{"under_estimated", intp(3), intp(4), VerdictUnderEstimated},
		{"significantly_over_estimated", intp(5), intp(3), VerdictSignificantlyOverEstimated},
		{"significantly_under_estimated", intp(1), intp(4), VerdictSignificantlyUnderEstimated},
		{"not_applicable_nil_user", nil, intp(3), VerdictNotApplicable},
		{"not_applicable_nil_judge", intp(3), nil, VerdictNotApplicable},
		{"not_applicable_both_nil", nil, nil, VerdictNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, verdictOf(tt.u, tt.j))
		})
	}
}

func TestBuildComparisonTableCoversAllSlugs(t *testing.T) {
	user := map[metrics.Slug]*int{metrics.Truthfulness: intp(4), metrics.Helpfulness: intp(3)}
	judge := map[metrics.Slug]*int{metrics.Truthfulness: intp(2)}

	table := BuildComparisonTable(user, judge)

	require.Len(t, table, 8)
	row := table[metrics.Truthfulness]
	require.NotNil(t, row.Gap)
	assert.Equal(t, 2, *row.Gap)
	assert.Equal(t, VerdictSignificantlyOverEstimated, row.Verdict)

	row = table[metrics.Helpfulness]
	assert.Nil(t, row.Gap)
	assert.Equal(t, VerdictNotApplicable, row.Verdict)
}

func TestWeightedGapFormula(t *testing.T) {
	user := map[metrics.Slug]*int{
		metrics.Truthfulness: intp(5), // primary
		metrics.Helpfulness:  intp(4), // bonus
		metrics.Safety:       intp(3), // other
	}
	judge := map[metrics.Slug]*int{
		metrics.Truthfulness: intp(3), // gap 2
		metrics.Helpfulness:  intp(2), // gap 2
		metrics.Safety:       intp(1), // gap 2
	}

	got := WeightedGap(metrics.Truthfulness, []metrics.Slug{metrics.Helpfulness}, user, judge)

	// 0.7*2 + 0.2*2 + 0.1*2 = 2.0
	assert.InDelta(t, 2.0, got, 0.0001)
}

func TestWeightedGapClampedToFive(t *testing.T) {
	user := map[metrics.Slug]*int{metrics.Truthfulness: intp(5)}
	judge := map[metrics.Slug]*int{metrics.Truthfulness: intp(1)}
	// p = 4; weighted = 0.7*4 = 2.8, well under 5, so verify clamp logic
	// separately by checking the ceiling never exceeds 5 for max possible gap.
	got := WeightedGap(metrics.Truthfulness, nil, user, judge)
	assert.LessOrEqual(t, got, 5.0)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestWeightedGapEmptyBonusAndOtherIsZero(t *testing.T) {
	user := map[metrics.Slug]*int{metrics.Truthfulness: intp(4)}
	judge := map[metrics.Slug]*int{metrics.Truthfulness: intp(4)}
	got := WeightedGap(metrics.Truthfulness, nil, user, judge)
	assert.Equal(t, 0.0, got)
}

func TestMetaScoreMapping(t *testing.T) {
	tests := []struct {
		gap  float64
		want int
	}{
		{0.0, 5}, {0.5, 5}, {0.6, 4}, {1.0, 4}, {1.1, 3}, {1.5, 3}, {1.6, 2}, {2.0, 2}, {2.1, 1}, {5.0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MetaScore(tt.gap))
	}
}

const validStage2JSON = `{
  "alignment_analysis": {
    "truthfulness": {"feedback": "good alignment"}
  },
  "overall_feedback": "solid work overall",
  "improvement_areas": ["be more concise"],
  "positive_feedback": ["accurate facts"]
}`

func TestParseStage2OverridesLLMArithmetic(t *testing.T) {
	params := Stage2Params{
		PrimaryMetric: metrics.Truthfulness,
		BonusMetrics:  nil,
		UserScores:    map[metrics.Slug]*int{metrics.Truthfulness: intp(5)},
		JudgeScores:   map[metrics.Slug]*int{metrics.Truthfulness: intp(3)},
	}

	result, err := ParseStage2(validStage2JSON, params)
	require.NoError(t, err)

	entry := result.Alignment[metrics.Truthfulness]
	require.NotNil(t, entry.Gap)
	assert.Equal(t, 2, *entry.Gap)
	assert.Equal(t, VerdictSignificantlyOverEstimated, entry.Verdict)
	assert.Equal(t, "good alignment", entry.Feedback)
	assert.Equal(t, "solid work overall", result.OverallFeedback)
	assert.InDelta(t, 1.4, result.WeightedGap, 0.0001)
	assert.Equal(t, 3, result.MetaScore)
}

func TestParseStage2MissingAlignmentEntryDefaultsEmptyFeedback(t *testing.T) {
	params := Stage2Params{
		PrimaryMetric: metrics.Safety,
		UserScores:    map[metrics.Slug]*int{metrics.Safety: intp(4)},
		JudgeScores:   map[metrics.Slug]*int{metrics.Safety: intp(4)},
	}
	result, err := ParseStage2(`{"alignment_analysis": {}, "overall_feedback": "ok"}`, params)
	require.NoError(t, err)
	assert.Equal(t, "", result.Alignment[metrics.Safety].Feedback)
	assert.Equal(t, VerdictAligned, result.Alignment[metrics.Safety].Verdict)
}
