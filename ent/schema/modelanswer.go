package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ModelAnswer holds the schema definition for the ModelAnswer entity.
// Immutable textual response of a candidate model to a question; referenced
// but not owned by the core (spec §3).
type ModelAnswer struct {
	ent.Schema
}

// Fields of the ModelAnswer.
func (ModelAnswer) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("model_answer_id").
			Unique().
			Immutable(),
		field.String("question_id").
			Immutable(),
		field.String("model_name").
			Immutable(),
		field.Text("answer_text").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the ModelAnswer.
func (ModelAnswer) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("question_id", "model_name").
			Unique(),
	}
}
