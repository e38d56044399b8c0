package judge

import (
	"context"
	"fmt"

	"github.com/mentormind/mentormind/pkg/config"
	"github.com/mentormind/mentormind/pkg/llmgateway"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// BuildComparisonTable computes the deterministic comparison row for every
// metric (spec §4.5). This runs before any LLM call — the prompt is built
// from its output, never the reverse.
func BuildComparisonTable(userScores, judgeScores map[metrics.Slug]*int) map[metrics.Slug]ComparisonRow {
	table := make(map[metrics.Slug]ComparisonRow, len(metrics.All))
	for _, slug := range metrics.All {
		u := userScores[slug]
		j := judgeScores[slug]
		table[slug] = ComparisonRow{
			UserScore:  u,
			JudgeScore: j,
			Gap:        gapOf(u, j),
			Verdict:    verdictOf(u, j),
		}
	}
	return table
}

func gapOf(u, j *int) *int {
	if u == nil || j == nil {
		return nil
	}
	g := *u - *j
	return &g
}

func verdictOf(u, j *int) Verdict {
	if u == nil || j == nil {
		return VerdictNotApplicable
	}
	gap := *u - *j
	switch {
	case gap == 0:
		return VerdictAligned
	case gap >= 2:
		return VerdictSignificantlyOverEstimated
	case gap <= -2:
		return VerdictSignificantlyUnderEstimated
	case gap > 0:
		return VerdictOverEstimated
	default:
		return VerdictUnderEstimated
	}
}

// WeightedGap computes the spec §4.5 weighted gap:
// 0.7·primary + 0.2·mean(bonus) + 0.1·mean(other), clamped to [0, 5].
func WeightedGap(primaryMetric metrics.Slug, bonusMetrics []metrics.Slug, userScores, judgeScores map[metrics.Slug]*int) float64 {
	p := absGap(userScores[primaryMetric], judgeScores[primaryMetric])

	bonusSet := make(map[metrics.Slug]bool, len(bonusMetrics))
	for _, s := range bonusMetrics {
		bonusSet[s] = true
	}

	b := meanAbsGap(userScores, judgeScores, func(s metrics.Slug) bool { return bonusSet[s] })
	o := meanAbsGap(userScores, judgeScores, func(s metrics.Slug) bool { return s != primaryMetric && !bonusSet[s] })

	w := 0.7*p + 0.2*b + 0.1*o
	return clamp(w, 0, 5)
}

func absGap(u, j *int) float64 {
	if u == nil || j == nil {
		return 0
	}
	diff := *u - *j
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)
}

// meanAbsGap averages |u-j| over the metrics for which include returns
// true, skipping any metric where either side is unscored. Returns 0 for an
// empty set, per spec §4.5.
func meanAbsGap(userScores, judgeScores map[metrics.Slug]*int, include func(metrics.Slug) bool) float64 {
	var sum float64
	var count int
	for _, slug := range metrics.All {
		if !include(slug) {
			continue
		}
		u, j := userScores[slug], judgeScores[slug]
		if u == nil || j == nil {
			continue
		}
		sum += absGap(u, j)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MetaScore maps a weighted gap to the 1..5 meta-score per spec §4.5.
func MetaScore(weightedGap float64) int {
	switch {
	case weightedGap <= 0.5:
		return 5
	case weightedGap <= 1.0:
		return 4
	case weightedGap <= 1.5:
		return 3
	case weightedGap <= 2.0:
		return 2
	default:
		return 1
	}
}

// rawStage2Payload mirrors the stage-2 prompt's requested wire shape.
type rawStage2Payload struct {
	AlignmentAnalysis map[string]rawAlignmentEntry `json:"alignment_analysis"`
	OverallFeedback   string                        `json:"overall_feedback"`
	ImprovementAreas  []string                      `json:"improvement_areas"`
	PositiveFeedback  []string                      `json:"positive_feedback"`
}

type rawAlignmentEntry struct {
	Feedback string `json:"feedback"`
}

// Stage2Params bundles everything needed to build the deterministic
// preprocessing and the final result.
type Stage2Params struct {
	PrimaryMetric metrics.Slug
	BonusMetrics  []metrics.Slug
	UserScores    map[metrics.Slug]*int
	JudgeScores   map[metrics.Slug]*int
	MemoryContext []MemoryContextEntry
}

// RunStage2 calls the gateway with the comparison table and past-mistake
// context already computed, then overrides the LLM's verdict/gap fields
// with the deterministic values — the LLM may influence prose, never
// arithmetic (spec §4.5).
func RunStage2(ctx context.Context, gw *llmgateway.Gateway, systemPrompt, userPrompt string, params Stage2Params) (*Stage2Result, error) {
	resp, err := gw.Complete(ctx, llmgateway.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		JSONMode:     true,
		Purpose:      config.PurposeJudgeStage2,
	})
	if err != nil {
		return nil, err
	}
	return ParseStage2(resp.Content, params)
}

// ParseStage2 is the pure parsing + deterministic-override half of
// RunStage2.
func ParseStage2(raw string, params Stage2Params) (*Stage2Result, error) {
	var payload rawStage2Payload
	if err := extractJSONObject(raw, &payload); err != nil {
		return nil, fmt.Errorf("judge: stage2 parse error: %w", err)
	}

	table := BuildComparisonTable(params.UserScores, params.JudgeScores)
	weightedGap := WeightedGap(params.PrimaryMetric, params.BonusMetrics, params.UserScores, params.JudgeScores)
	metaScore := MetaScore(weightedGap)
	primaryGap := absGap(params.UserScores[params.PrimaryMetric], params.JudgeScores[params.PrimaryMetric])

	alignment := make(map[metrics.Slug]AlignmentEntry, len(metrics.All))
	for _, slug := range metrics.All {
		row := table[slug]
		feedback := ""
		if entry, ok := payload.AlignmentAnalysis[string(slug)]; ok {
			feedback = entry.Feedback
		}
		alignment[slug] = AlignmentEntry{
			UserScore:  row.UserScore,
			JudgeScore: row.JudgeScore,
			Gap:        row.Gap,
			Verdict:    row.Verdict,
			Feedback:   feedback,
		}
	}

	return &Stage2Result{
		Alignment:        alignment,
		OverallFeedback:  payload.OverallFeedback,
		ImprovementAreas: payload.ImprovementAreas,
		PositiveFeedback: payload.PositiveFeedback,
		MetaScore:        metaScore,
		WeightedGap:      weightedGap,
		PrimaryMetricGap: primaryGap,
	}, nil
}
