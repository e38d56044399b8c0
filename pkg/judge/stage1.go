package judge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mentormind/mentormind/pkg/config"
	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/llmgateway"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// Stage1Input is everything the blind scoring prompt needs; stage-1 never
// sees the learner's self-scores (spec §4.4 "without seeing learner
// scores").
type Stage1Input struct {
	Question          string
	ReferenceAnswer   string
	ExpectedBehavior  string
	RubricBreakdown   map[int]string
	ModelAnswer       string
	ModelName         string
}

// rawStage1Envelope keeps independent_scores and evidence as raw JSON so
// the two fields can be parsed and validated independently — a malformed
// evidence sub-object must never invalidate the scores (spec §4.4).
type rawStage1Envelope struct {
	IndependentScores json.RawMessage `json:"independent_scores"`
	Evidence          json.RawMessage `json:"evidence"`
}

type rawScoreEntry struct {
	Score     *int   `json:"score"`
	Rationale string `json:"rationale"`
}

type rawEvidence struct {
	Quote  string `json:"quote"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Why    string `json:"why"`
	Better string `json:"better"`
}

// RunStage1 calls the gateway, parses the response with the fenced/brace
// fallback chain, validates all eight slugs are present, and runs the
// verified evidence through the evidence package. A whole-payload parse
// failure returns Stage1ParseError; an evidence-only parse failure is
// swallowed and Stage1Result.Evidence is nil (spec §4.4: "a failure here
// does not invalidate scores").
func RunStage1(ctx context.Context, gw *llmgateway.Gateway, systemPrompt, userPrompt string, evidenceOpts evidence.Options, modelAnswer string) (*Stage1Result, error) {
	resp, err := gw.Complete(ctx, llmgateway.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		JSONMode:     true,
		Purpose:      config.PurposeJudgeStage1,
	})
	if err != nil {
		return nil, err
	}

	return ParseStage1(resp.Content, evidenceOpts, modelAnswer)
}

// ParseStage1 is the pure parsing/verification half of RunStage1, split out
// so tests can exercise the parse-strategy fallback chain without a live
// gateway.
func ParseStage1(raw string, evidenceOpts evidence.Options, modelAnswer string) (*Stage1Result, error) {
	var envelope rawStage1Envelope
	if err := extractJSONObject(raw, &envelope); err != nil {
		return nil, &Stage1ParseError{Reason: err.Error()}
	}

	var scoreEntries map[string]rawScoreEntry
	if err := json.Unmarshal(envelope.IndependentScores, &scoreEntries); err != nil {
		return nil, &Stage1ParseError{Reason: fmt.Sprintf("independent_scores: %v", err)}
	}

	scores := make(map[metrics.Slug]ScoreAndRationale, len(metrics.All))
	for _, slug := range metrics.All {
		entry, ok := scoreEntries[string(slug)]
		if !ok {
			return nil, &Stage1ParseError{Reason: fmt.Sprintf("missing slug %q in independent_scores", slug)}
		}
		if entry.Score != nil {
			if *entry.Score < 1 || *entry.Score > 5 {
				return nil, &Stage1ParseError{Reason: fmt.Sprintf("slug %q: score %d out of range 1..5", slug, *entry.Score)}
			}
			if entry.Rationale == "" {
				return nil, &Stage1ParseError{Reason: fmt.Sprintf("slug %q: scored but rationale is empty", slug)}
			}
		}
		scores[slug] = ScoreAndRationale{Score: entry.Score, Rationale: entry.Rationale}
	}

	result := &Stage1Result{IndependentScores: scores}

	rawEv, evErr := parseRawEvidence(envelope.Evidence)
	if evErr != nil {
		// Evidence parsing is isolated: swallow the failure per spec §4.4.
		return result, nil
	}

	result.Evidence = evidence.Process(modelAnswer, rawEv, evidenceOpts)
	return result, nil
}

func parseRawEvidence(raw json.RawMessage) (evidence.ByMetric, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no evidence field present")
	}
	var evidenceMap map[string][]rawEvidence
	if err := json.Unmarshal(raw, &evidenceMap); err != nil {
		return nil, fmt.Errorf("evidence field malformed: %w", err)
	}
	out := make(evidence.ByMetric, len(evidenceMap))
	for slugStr, items := range evidenceMap {
		slug, err := metrics.ParseSlug(slugStr)
		if err != nil {
			continue // an unknown slug key is dropped, not fatal to the whole payload
		}
		converted := make([]evidence.Item, 0, len(items))
		for _, it := range items {
			if it.Start < 0 || it.End < it.Start {
				continue
			}
			converted = append(converted, evidence.Item{
				Quote: it.Quote, Start: it.Start, End: it.End, Why: it.Why, Better: it.Better,
			})
		}
		out[slug] = converted
	}
	return out, nil
}
