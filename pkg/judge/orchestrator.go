package judge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/schema"
	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/idgen"
	"github.com/mentormind/mentormind/pkg/llmgateway"
	"github.com/mentormind/mentormind/pkg/metrics"
	"github.com/mentormind/mentormind/pkg/snapshot"
	"github.com/mentormind/mentormind/pkg/vectormemory"
)

// Orchestrator drives the background judge task (spec §4.8): Stage-1 →
// memory query → Stage-2 → snapshot write → memory insert → mark judged, in
// that strict order, for one learner-evaluation id at a time.
type Orchestrator struct {
	client       *ent.Client
	gateway      *llmgateway.Gateway
	embedder     *llmgateway.EmbeddingGateway
	memory       *vectormemory.Store
	snapshots    *snapshot.Service
	evidence     evidence.Options
	judgeModel   string
	stageTimeout time.Duration
	maxChatTurns int
}

// NewOrchestrator wires the pipeline's dependencies. judgeModel is recorded
// verbatim into the resulting snapshot's judge_model_name. maxChatTurns is
// the configured per-snapshot chat turn cap (cfg.Defaults.MaxChatTurns);
// snapshot.Assemble falls back to its own default if this is zero.
func NewOrchestrator(client *ent.Client, gateway *llmgateway.Gateway, embedder *llmgateway.EmbeddingGateway, memory *vectormemory.Store, snapshots *snapshot.Service, evidenceOpts evidence.Options, judgeModel string, stageTimeout time.Duration, maxChatTurns int) *Orchestrator {
	return &Orchestrator{
		client:       client,
		gateway:      gateway,
		embedder:     embedder,
		memory:       memory,
		snapshots:    snapshots,
		evidence:     evidenceOpts,
		judgeModel:   judgeModel,
		stageTimeout: stageTimeout,
		maxChatTurns: maxChatTurns,
	}
}

// Run executes the six ordered steps of spec §4.8 for one learner
// evaluation. Any Stage-1/Stage-2 failure leaves judged=false for external
// retry; a snapshot write failure after successful scoring does too.
func (o *Orchestrator) Run(ctx context.Context, learnerEvaluationID string) error {
	le, err := o.client.LearnerEvaluation.Get(ctx, learnerEvaluationID)
	if err != nil {
		return fmt.Errorf("judge: load learner evaluation: %w", err)
	}
	if le.Judged {
		slog.Info("judge run skipped, already judged", "learner_evaluation_id", learnerEvaluationID)
		return nil
	}

	question, err := o.client.Question.Get(ctx, le.QuestionID)
	if err != nil {
		return fmt.Errorf("judge: load question: %w", err)
	}
	modelAnswer, err := o.client.ModelAnswer.Get(ctx, le.ModelAnswerID)
	if err != nil {
		return fmt.Errorf("judge: load model answer: %w", err)
	}

	primaryMetric, err := metrics.ParseSlug(question.PrimaryMetric)
	if err != nil {
		return fmt.Errorf("judge: question primary metric: %w", err)
	}
	bonusMetrics := make([]metrics.Slug, 0, len(question.BonusMetrics))
	for _, raw := range question.BonusMetrics {
		slug, err := metrics.ParseSlug(raw)
		if err != nil {
			continue
		}
		bonusMetrics = append(bonusMetrics, slug)
	}

	userScores := make(map[metrics.Slug]*int, len(le.Scores))
	for raw, entry := range le.Scores {
		slug, err := metrics.ParseSlug(raw)
		if err != nil {
			continue
		}
		userScores[slug] = entry.Score
	}

	rubricBreakdown := make(map[int]string, len(question.RubricBreakdown))
	for level := 1; level <= 5; level++ {
		if desc, ok := question.RubricBreakdown[fmt.Sprintf("%d", level)]; ok {
			rubricBreakdown[level] = desc
		}
	}

	// Step 1: Stage-1, blind scoring plus evidence.
	stage1Ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	stage1Prompt := BuildStage1UserPrompt(question.Text, "", "", rubricBreakdown, modelAnswer.AnswerText, modelAnswer.ModelName)
	stage1, err := RunStage1(stage1Ctx, o.gateway, stage1SystemPrompt, stage1Prompt, o.evidence, modelAnswer.AnswerText)
	cancel()
	if err != nil {
		slog.Info("judge stage1 failed, evaluation remains unjudged", "learner_evaluation_id", learnerEvaluationID, "error", err)
		return fmt.Errorf("judge: stage1: %w", err)
	}

	// Step 2: memory query, scoped to Stage-1's primary metric and category.
	// Empty results are expected (spec §4.6) and never abort the pipeline.
	memoryContext := o.queryMemory(ctx, primaryMetric, question.Category)

	// Step 3: Stage-2, deterministic comparison plus mentoring prose.
	judgeScores := make(map[metrics.Slug]*int, len(stage1.IndependentScores))
	for slug, entry := range stage1.IndependentScores {
		judgeScores[slug] = entry.Score
	}
	table := BuildComparisonTable(userScores, judgeScores)
	weightedGap := WeightedGap(primaryMetric, bonusMetrics, userScores, judgeScores)
	metaScore := MetaScore(weightedGap)
	stage2Prompt := BuildStage2UserPrompt(table, weightedGap, metaScore, memoryContext)

	stage2Ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	stage2, err := RunStage2(stage2Ctx, o.gateway, stage2SystemPrompt, stage2Prompt, Stage2Params{
		PrimaryMetric: primaryMetric,
		BonusMetrics:  bonusMetrics,
		UserScores:    userScores,
		JudgeScores:   judgeScores,
		MemoryContext: memoryContext,
	})
	cancel()
	if err != nil {
		slog.Info("judge stage2 failed, evaluation remains unjudged", "learner_evaluation_id", learnerEvaluationID, "error", err)
		return fmt.Errorf("judge: stage2: %w", err)
	}

	judgeEvaluationID := idgen.New("judge")

	// Step 4: snapshot write, atomic. Failure here also leaves judged=false.
	snap, err := snapshot.Assemble(snapshot.AssembleInput{
		Stage1:              stage1,
		Stage2:              stage2,
		LearnerEvaluationID: learnerEvaluationID,
		JudgeEvaluationID:   judgeEvaluationID,
		JudgeModelName:      o.judgeModel,
		QuestionText:        question.Text,
		QuestionCategory:    question.Category,
		PrimaryMetric:       primaryMetric,
		BonusMetrics:        bonusMetrics,
		ModelAnswerText:     modelAnswer.AnswerText,
		ModelName:           modelAnswer.ModelName,
		UserScores:          userScores,
		MaxChatTurns:        o.maxChatTurns,
	})
	if err != nil {
		return fmt.Errorf("judge: assemble snapshot: %w", err)
	}
	if err := o.persistJudgeEvaluation(ctx, judgeEvaluationID, learnerEvaluationID, stage1, stage2, primaryMetric, memoryContext); err != nil {
		return fmt.Errorf("judge: persist judge evaluation: %w", err)
	}
	if err := o.snapshots.Create(ctx, snap); err != nil {
		// Remove the judge evaluation row written just above, so nothing of
		// this run persists and a retry can insert it again.
		if delErr := o.client.JudgeEvaluation.DeleteOneID(judgeEvaluationID).Exec(context.Background()); delErr != nil {
			slog.Error("failed to remove judge evaluation after snapshot write failure", "learner_evaluation_id", learnerEvaluationID, "error", delErr)
		}
		return fmt.Errorf("judge: write snapshot: %w", err)
	}

	// Step 5: memory insert, best-effort and log-only on failure.
	o.insertMemory(ctx, vectormemory.Document{
		EvaluationID:   learnerEvaluationID,
		Text:           vectormemory.BuildSummary(question.Category, primaryMetric, userScores[primaryMetric], judgeScores[primaryMetric], metaScore, stage2.PrimaryMetricGap, weightedGap, stage2.OverallFeedback),
		PrimaryMetric:  primaryMetric,
		Category:       question.Category,
		MetaScore:      metaScore,
		PrimaryGap:     stage2.PrimaryMetricGap,
		WeightedGap:    weightedGap,
		ModelName:      modelAnswer.ModelName,
		Timestamp:      time.Now().UTC().Unix(),
		MistakePattern: stage2.OverallFeedback,
	})

	// Step 6: mark judged. This is the idempotency gate: a retried enqueue
	// for an already-judged id is a no-op via the early return above.
	now := time.Now().UTC()
	if err := o.client.LearnerEvaluation.UpdateOneID(learnerEvaluationID).
		SetJudged(true).
		SetJudgedAt(now).
		Exec(ctx); err != nil {
		return fmt.Errorf("judge: mark judged: %w", err)
	}

	slog.Info("judge run complete", "learner_evaluation_id", learnerEvaluationID, "judge_evaluation_id", judgeEvaluationID, "meta_score", metaScore)
	return nil
}

func (o *Orchestrator) queryMemory(ctx context.Context, primaryMetric metrics.Slug, category string) []MemoryContextEntry {
	if o.memory == nil || o.embedder == nil {
		return nil
	}
	queryText := vectormemory.QueryText(primaryMetric, category)
	embedding, err := o.embedder.Embed(ctx, queryText)
	if err != nil {
		slog.Warn("memory query embedding failed, proceeding without past-mistake context", "error", err)
		return nil
	}
	hits, err := o.memory.Query(ctx, embedding, primaryMetric, category, 5)
	if err != nil {
		slog.Warn("memory query failed, proceeding without past-mistake context", "error", err)
		return nil
	}
	out := make([]MemoryContextEntry, len(hits))
	for i, h := range hits {
		out[i] = MemoryContextEntry{
			EvaluationID:   h.EvaluationID,
			Category:       h.Category,
			MetaScore:      h.JudgeMetaScore,
			PrimaryGap:     h.PrimaryGap,
			Feedback:       h.Feedback,
			MistakePattern: h.MistakePattern,
		}
	}
	return out
}

func (o *Orchestrator) insertMemory(ctx context.Context, doc vectormemory.Document) {
	if o.memory == nil || o.embedder == nil {
		return
	}
	embedding, err := o.embedder.Embed(ctx, doc.Text)
	if err != nil {
		slog.Warn("memory insert embedding failed", "evaluation_id", doc.EvaluationID, "error", err)
		return
	}
	if err := o.memory.Insert(ctx, doc, embedding); err != nil {
		slog.Warn("memory insert failed", "evaluation_id", doc.EvaluationID, "error", err)
	}
}

// formatMemoryContext renders the past-mistake entries surfaced to stage-2
// into the flat string form persisted on vector_context_snapshot, one entry
// per line, matching the per-entry format stage-2's own prompt uses.
func formatMemoryContext(entries []MemoryContextEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, len(entries))
	for i, m := range entries {
		out[i] = fmt.Sprintf("meta_score=%d primary_gap=%.2f: %s", m.MetaScore, m.PrimaryGap, m.MistakePattern)
	}
	return out
}

// persistJudgeEvaluation writes the one-to-one JudgeEvaluation row backing
// the snapshot (spec §3 "Judge evaluation").
func (o *Orchestrator) persistJudgeEvaluation(ctx context.Context, judgeEvaluationID, learnerEvaluationID string, stage1 *Stage1Result, stage2 *Stage2Result, primaryMetric metrics.Slug, memoryContext []MemoryContextEntry) error {
	independentScores := make(map[string]schema.IndependentScoreEntry, len(stage1.IndependentScores))
	for slug, entry := range stage1.IndependentScores {
		independentScores[string(slug)] = schema.IndependentScoreEntry{Score: entry.Score, Rationale: entry.Rationale}
	}

	alignment := make(map[string]schema.AlignmentEntry, len(stage2.Alignment))
	for slug, entry := range stage2.Alignment {
		alignment[string(slug)] = schema.AlignmentEntry{
			UserScore:  entry.UserScore,
			JudgeScore: entry.JudgeScore,
			Gap:        entry.Gap,
			Verdict:    string(entry.Verdict),
			Feedback:   entry.Feedback,
		}
	}

	_, err := o.client.JudgeEvaluation.Create().
		SetID(judgeEvaluationID).
		SetLearnerEvaluationID(learnerEvaluationID).
		SetIndependentScores(independentScores).
		SetAlignmentAnalysis(alignment).
		SetMetaScore(stage2.MetaScore).
		SetOverallFeedback(stage2.OverallFeedback).
		SetImprovementAreas(stage2.ImprovementAreas).
		SetPositiveFeedback(stage2.PositiveFeedback).
		SetPrimaryMetric(string(primaryMetric)).
		SetPrimaryMetricGap(stage2.PrimaryMetricGap).
		SetWeightedGap(stage2.WeightedGap).
		SetVectorContextSnapshot(formatMemoryContext(memoryContext)).
		Save(ctx)
	return err
}
