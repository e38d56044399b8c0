package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Question holds the schema definition for the Question entity.
// Referenced but not owned by the core — generated upstream from rubric
// templates and persisted here only for the judge pipeline to read.
type Question struct {
	ent.Schema
}

// Fields of the Question.
func (Question) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("question_id").
			Unique().
			Immutable(),
		field.Text("text").
			Immutable(),
		field.String("category").
			Immutable(),
		field.JSON("rubric_breakdown", map[string]string{}).
			Immutable().
			Comment("1..5 -> description"),
		field.String("primary_metric").
			Immutable().
			Comment("metrics.Slug"),
		field.JSON("bonus_metrics", []string{}).
			Immutable().
			Comment("disjoint from primary_metric"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the Question.
func (Question) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("category"),
		index.Fields("primary_metric"),
	}
}
