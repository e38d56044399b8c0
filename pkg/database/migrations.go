package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These indexes enable efficient full-text search over a snapshot's question
// text and judge feedback, independent of the ent-managed equality/range
// indexes in ent/schema/evaluationsnapshot.go.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	// GIN index for question text full-text search
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_evaluation_snapshots_question_text_gin
		ON evaluation_snapshots USING gin(to_tsvector('english', question_text))`)
	if err != nil {
		return fmt.Errorf("failed to create question_text GIN index: %w", err)
	}

	// GIN index for judge feedback full-text search
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_evaluation_snapshots_overall_feedback_gin
		ON evaluation_snapshots USING gin(to_tsvector('english', COALESCE(overall_feedback, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create overall_feedback GIN index: %w", err)
	}

	return nil
}
