package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/judge"
	"github.com/mentormind/mentormind/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestNewSnapshotIDFormat(t *testing.T) {
	at := time.Date(2026, 7, 31, 15, 4, 5, 0, time.UTC)
	id, err := NewSnapshotID(at)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "snap_20260731_150405_"))
	parts := strings.Split(id, "_")
	require.Len(t, parts, 4)
	assert.Len(t, parts[3], 12) // 6 random bytes, hex-encoded
}

func TestAssembleDefaultsMaxChatTurns(t *testing.T) {
	input := AssembleInput{
		Stage1: &judge.Stage1Result{
			IndependentScores: map[metrics.Slug]judge.ScoreAndRationale{
				metrics.Truthfulness: {Score: intp(4), Rationale: "ok"},
			},
		},
		Stage2:              &judge.Stage2Result{MetaScore: 4, WeightedGap: 1.0, OverallFeedback: "fine"},
		LearnerEvaluationID: "le1",
		JudgeEvaluationID:   "je1",
		PrimaryMetric:       metrics.Truthfulness,
		ModelAnswerText:     "answer",
	}

	snap, err := Assemble(input)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.ChatTurnCount)
	assert.Equal(t, 15, snap.MaxChatTurns)
	assert.Equal(t, "active", snap.Status)
	assert.Equal(t, 4, *snap.JudgeScores[metrics.Truthfulness])
}

func TestAssembleCarriesEvidenceThroughUnlessNil(t *testing.T) {
	input := AssembleInput{
		Stage1: &judge.Stage1Result{
			IndependentScores: map[metrics.Slug]judge.ScoreAndRationale{metrics.Safety: {Score: intp(5), Rationale: "ok"}},
			Evidence:          evidence.ByMetric{metrics.Safety: {{Quote: "x", Verified: true}}},
		},
		Stage2:              &judge.Stage2Result{MetaScore: 5, WeightedGap: 0},
		LearnerEvaluationID: "le2",
		JudgeEvaluationID:   "je2",
		PrimaryMetric:       metrics.Safety,
	}
	snap, err := Assemble(input)
	require.NoError(t, err)
	require.NotNil(t, snap.EvidenceByMetric)
	assert.True(t, snap.EvidenceByMetric[metrics.Safety][0].Verified)
}

func TestAssembleGracefulDegradationNilEvidence(t *testing.T) {
	input := AssembleInput{
		Stage1:              &judge.Stage1Result{IndependentScores: map[metrics.Slug]judge.ScoreAndRationale{}},
		Stage2:              &judge.Stage2Result{},
		LearnerEvaluationID: "le3",
		JudgeEvaluationID:   "je3",
	}
	snap, err := Assemble(input)
	require.NoError(t, err)
	assert.Nil(t, snap.EvidenceByMetric)
}
