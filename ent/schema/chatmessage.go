package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ChatMessage holds the schema definition for the ChatMessage entity (spec
// §3). Unique per (snapshot_id, client_message_id, role); an assistant row
// with is_complete=false is a resumable in-flight stream.
type ChatMessage struct {
	ent.Schema
}

// Fields of the ChatMessage.
func (ChatMessage) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("chat_message_id").
			Unique().
			Immutable(),
		field.String("snapshot_id").
			Immutable(),
		field.String("client_message_id").
			Immutable(),
		field.Enum("role").
			Values("user", "assistant").
			Immutable(),
		field.Text("content"),
		field.Bool("is_complete").
			Default(true),
		field.JSON("selected_metrics", []string{}).
			Optional().
			Nillable().
			Comment("set on every user message from that turn's request; null on assistant rows"),
		field.Int("token_count").
			Default(0),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the ChatMessage.
func (ChatMessage) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("snapshot", EvaluationSnapshot.Type).
			Ref("messages").
			Field("snapshot_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ChatMessage.
func (ChatMessage) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("snapshot_id", "client_message_id", "role").
			Unique(),
		index.Fields("snapshot_id", "created_at"),
		// Resumable-stream lookup over in-flight (is_complete=false) rows;
		// the index is not unique, so it does not limit how many such rows
		// a snapshot has.
		index.Fields("snapshot_id", "is_complete").
			Annotations(entsql.IndexWhere("is_complete = false")),
	}
}
