package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LearnerEvaluationScore is one slug's entry in the eight-entry scores
// mapping (spec §3): score is 1..5 or null, reasoning is non-empty iff
// score is non-null.
type LearnerEvaluationScore struct {
	Score     *int   `json:"score"`
	Reasoning string `json:"reasoning"`
}

// LearnerEvaluation holds the schema definition for the LearnerEvaluation
// entity. One row per submission; created by the external submitter,
// mutated once by the orchestrator (C8) to set judged=true.
type LearnerEvaluation struct {
	ent.Schema
}

// Fields of the LearnerEvaluation.
func (LearnerEvaluation) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("learner_evaluation_id").
			Unique().
			Immutable(),
		field.String("question_id").
			Immutable(),
		field.String("model_answer_id").
			Immutable(),
		field.JSON("scores", map[string]LearnerEvaluationScore{}).
			Immutable().
			Comment("slug -> {score, reasoning}, exactly eight entries"),
		field.Bool("judged").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("judged_at").
			Optional().
			Nillable(),
		field.Time("claimed_at").
			Optional().
			Nillable().
			Comment("set by a worker claiming this row for judging; cleared on requeue"),
		field.String("claimed_by").
			Optional().
			Nillable().
			Comment("worker id that holds the claim, for diagnostics only"),
	}
}

// Indexes of the LearnerEvaluation.
func (LearnerEvaluation) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("judged"),
		index.Fields("question_id"),
		index.Fields("claimed_at"),
	}
}
