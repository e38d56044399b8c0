package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// IndependentScoreEntry is one slug's stage-1 independent score (spec §3).
type IndependentScoreEntry struct {
	Score     *int   `json:"score"`
	Rationale string `json:"rationale"`
}

// AlignmentEntry is one slug's stage-2 alignment row (spec §3).
type AlignmentEntry struct {
	UserScore  *int   `json:"user_score"`
	JudgeScore *int   `json:"judge_score"`
	Gap        *int   `json:"gap"`
	Verdict    string `json:"verdict"`
	Feedback   string `json:"feedback"`
}

// JudgeEvaluation holds the schema definition for the JudgeEvaluation
// entity. One row per learner evaluation (1:1 after success).
type JudgeEvaluation struct {
	ent.Schema
}

// Fields of the JudgeEvaluation.
func (JudgeEvaluation) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("judge_evaluation_id").
			Unique().
			Immutable(),
		field.String("learner_evaluation_id").
			Unique().
			Immutable(),
		field.JSON("independent_scores", map[string]IndependentScoreEntry{}).
			Immutable(),
		field.JSON("alignment_analysis", map[string]AlignmentEntry{}).
			Immutable(),
		field.Int("meta_score").
			Immutable().
			Comment("1..5, computed, never trusted from the LLM"),
		field.Text("overall_feedback").
			Immutable(),
		field.JSON("improvement_areas", []string{}).
			Immutable(),
		field.JSON("positive_feedback", []string{}).
			Immutable(),
		field.JSON("vector_context_snapshot", []string{}).
			Optional().
			Immutable().
			Comment("formatted past-mistake entries used at judge time"),
		field.String("primary_metric").
			Immutable(),
		field.Float("primary_metric_gap").
			Immutable(),
		field.Float("weighted_gap").
			Immutable().
			Comment("in [0, 5], clamped"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the JudgeEvaluation.
func (JudgeEvaluation) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("snapshot", EvaluationSnapshot.Type).
			Unique(),
	}
}

// Indexes of the JudgeEvaluation.
func (JudgeEvaluation) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_evaluation_id").
			Unique(),
	}
}
