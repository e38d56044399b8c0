package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EvidenceItem is one verified (or unverified) evidence entry (spec §3).
type EvidenceItem struct {
	Quote              string `json:"quote"`
	Start              int    `json:"start"`
	End                int    `json:"end"`
	Why                string `json:"why"`
	Better             string `json:"better"`
	Verified           bool   `json:"verified"`
	HighlightAvailable bool   `json:"highlight_available"`
}

// EvaluationSnapshot holds the schema definition for the EvaluationSnapshot
// entity — the atomic denormalized record produced when the judge pipeline
// succeeds (spec §3, §4.7). Snapshots are never mutated after creation
// except for chat counters and the soft-delete fields.
type EvaluationSnapshot struct {
	ent.Schema
}

// Fields of the EvaluationSnapshot.
func (EvaluationSnapshot) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("snapshot_id").
			Unique().
			Immutable().
			Comment("snap_<UTC-date>_<UTC-time>_<hex>"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.String("learner_evaluation_id").
			Unique().
			Immutable(),
		field.String("judge_evaluation_id").
			Unique().
			Immutable(),
		field.Text("question_text").
			Immutable(),
		field.Text("model_answer_text").
			Immutable(),
		field.String("model_name").
			Immutable(),
		field.String("judge_model_name").
			Immutable(),
		field.String("primary_metric").
			Immutable(),
		field.JSON("bonus_metrics", []string{}).
			Immutable(),
		field.String("category").
			Immutable(),
		field.JSON("user_scores", map[string]*int{}).
			Immutable(),
		field.JSON("judge_scores", map[string]*int{}).
			Immutable(),
		field.JSON("evidence_by_metric", map[string][]EvidenceItem{}).
			Optional().
			Nillable().
			Comment("null when evidence parsing degraded (graceful degradation)"),
		field.Int("meta_score").
			Immutable(),
		field.Float("weighted_gap").
			Immutable(),
		field.Text("overall_feedback").
			Immutable(),
		field.Int("chat_turn_count").
			Default(0),
		field.Int("max_chat_turns").
			Default(15),
		field.Enum("status").
			Values("active", "completed", "archived").
			Default("active"),
		field.Time("deleted_at").
			Optional().
			Nillable(),
	}
}

// Edges of the EvaluationSnapshot.
func (EvaluationSnapshot) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("judge_evaluation", JudgeEvaluation.Type).
			Ref("snapshot").
			Field("judge_evaluation_id").
			Unique().
			Required().
			Immutable(),
		edge.To("messages", ChatMessage.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the EvaluationSnapshot.
func (EvaluationSnapshot) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("created_at"),
		index.Fields("primary_metric"),
		index.Fields("category"),
		// Listing always filters deleted_at IS NULL; this index serves that
		// scan directly instead of falling back to a sequential scan.
		index.Fields("deleted_at").
			Annotations(entsql.IndexWhere("deleted_at IS NULL")),
	}
}
