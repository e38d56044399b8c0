// Package judge implements the two-stage judge pipeline (spec §4.4, §4.5):
// stage-1 blind per-metric scoring plus evidence, and stage-2 deterministic
// comparison/weighted-gap/meta-score computation.
package judge

import (
	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// ScoreAndRationale is one metric's score (1..5, nil if unscored) plus its
// rationale text.
type ScoreAndRationale struct {
	Score     *int
	Rationale string
}

// Stage1Result is the parsed, evidence-verified output of judge stage-1.
type Stage1Result struct {
	IndependentScores map[metrics.Slug]ScoreAndRationale
	Evidence          evidence.ByMetric // nil on evidence-only parse failure
}

// Verdict classifies the gap between a learner's self-score and the judge's
// independent score for one metric.
type Verdict string

const (
	VerdictAligned                   Verdict = "aligned"
	VerdictOverEstimated              Verdict = "over_estimated"
	VerdictUnderEstimated             Verdict = "under_estimated"
	VerdictSignificantlyOverEstimated Verdict = "significantly_over_estimated"
	VerdictSignificantlyUnderEstimated Verdict = "significantly_under_estimated"
	VerdictNotApplicable              Verdict = "not_applicable"
)

// ComparisonRow is one metric's row in the stage-2 comparison table.
type ComparisonRow struct {
	UserScore  *int
	JudgeScore *int
	Gap        *int // nil if either score is nil ("n/a" per spec §4.5)
	Verdict    Verdict
}

// AlignmentEntry is one metric's row in the stage-2 alignment analysis,
// after the deterministic verdict/gap override (spec §4.5: "the component
// then overrides the verdict and gap fields with its deterministic values").
type AlignmentEntry struct {
	UserScore  *int
	JudgeScore *int
	Gap        *int
	Verdict    Verdict
	Feedback   string
}

// Stage2Result is the parsed, deterministically-corrected output of judge
// stage-2.
type Stage2Result struct {
	Alignment         map[metrics.Slug]AlignmentEntry
	OverallFeedback   string
	ImprovementAreas  []string
	PositiveFeedback  []string
	MetaScore         int
	WeightedGap       float64
	PrimaryMetricGap  float64
}

// MemoryContextEntry is one past-mistake entry surfaced to the stage-2
// prompt from vector memory (spec §4.5 "past-mistake context").
type MemoryContextEntry struct {
	EvaluationID  string
	Category      string
	MetaScore     int
	PrimaryGap    float64
	Feedback      string
	MistakePattern string
}
