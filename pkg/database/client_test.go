package database

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient starts a throwaway Postgres container, auto-migrates the
// ent schema onto it, and wraps it as a *Client (avoids an import cycle
// with any shared test helper package).
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := sql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	db := drv.DB()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	entClient := ent.NewClient(ent.Driver(drv))

	err = entClient.Schema.Create(ctx)
	require.NoError(t, err)

	err = CreateGINIndexes(ctx, drv)
	require.NoError(t, err)

	client := NewClientFromEnt(entClient, db)

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestDatabaseClient_ConnectionPool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.DB().PingContext(ctx)
	require.NoError(t, err)

	health, err := Health(ctx, client.DB())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxOpenConns, 0)
}

// newTestSnapshot inserts the judge-evaluation row EvaluationSnapshot's
// edge requires, then the snapshot itself, with the given question/feedback
// text — the two columns CreateGINIndexes builds full-text indexes over.
func newTestSnapshot(t *testing.T, client *Client, id, questionText, overallFeedback string) {
	ctx := context.Background()

	_, err := client.JudgeEvaluation.Create().
		SetID("judge_" + id).
		SetLearnerEvaluationID("eval_" + id).
		SetIndependentScores(map[string]schema.IndependentScoreEntry{}).
		SetAlignmentAnalysis(map[string]schema.AlignmentEntry{}).
		SetMetaScore(4).
		SetOverallFeedback(overallFeedback).
		SetImprovementAreas([]string{}).
		SetPositiveFeedback([]string{}).
		SetPrimaryMetric("truthfulness").
		SetPrimaryMetricGap(0).
		SetWeightedGap(0).
		Save(ctx)
	require.NoError(t, err)

	_, err = client.EvaluationSnapshot.Create().
		SetID("snap_" + id).
		SetLearnerEvaluationID("eval_" + id).
		SetJudgeEvaluationID("judge_" + id).
		SetQuestionText(questionText).
		SetModelAnswerText("a candidate answer").
		SetModelName("test-model").
		SetJudgeModelName("test-judge-model").
		SetPrimaryMetric("truthfulness").
		SetBonusMetrics([]string{}).
		SetCategory("general").
		SetUserScores(map[string]*int{}).
		SetJudgeScores(map[string]*int{}).
		SetMetaScore(4).
		SetWeightedGap(0).
		SetOverallFeedback(overallFeedback).
		Save(ctx)
	require.NoError(t, err)
}

func TestFullTextSearch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	newTestSnapshot(t, client, "1",
		"Critical error in production cluster with pod failures",
		"Review the failure postmortem before the next attempt.")
	newTestSnapshot(t, client, "2",
		"Warning: high memory usage detected",
		"Consider tightening the memory budget next time.")

	rows, err := client.DB().QueryContext(ctx,
		`SELECT snapshot_id FROM evaluation_snapshots
		WHERE to_tsvector('english', question_text) @@ to_tsquery('english', $1)`,
		"error & production",
	)
	require.NoError(t, err)
	defer rows.Close()

	var results []string
	for rows.Next() {
		var snapshotID string
		err := rows.Scan(&snapshotID)
		require.NoError(t, err)
		results = append(results, snapshotID)
	}

	assert.Len(t, results, 1)
	assert.Equal(t, "snap_1", results[0])

	rows2, err := client.DB().QueryContext(ctx,
		`SELECT snapshot_id FROM evaluation_snapshots
		WHERE to_tsvector('english', overall_feedback) @@ to_tsquery('english', $1)`,
		"budget",
	)
	require.NoError(t, err)
	defer rows2.Close()

	var results2 []string
	for rows2.Next() {
		var snapshotID string
		err := rows2.Scan(&snapshotID)
		require.NoError(t, err)
		results2 = append(results2, snapshotID)
	}

	assert.Len(t, results2, 1)
	assert.Equal(t, "snap_2", results2[0])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Host:         "localhost",
				Port:         5432,
				User:         "test",
				Password:     "test",
				Database:     "test",
				SSLMode:      "disable",
				MaxOpenConns: 10,
				MaxIdleConns: 5,
			},
			wantErr: false,
		},
		{
			name: "missing password",
			cfg: Config{
				Host:         "localhost",
				Port:         5432,
				User:         "test",
				Password:     "",
				Database:     "test",
				MaxOpenConns: 10,
				MaxIdleConns: 5,
			},
			wantErr: true,
		},
		{
			name: "idle conns exceed max conns",
			cfg: Config{
				Host:         "localhost",
				Port:         5432,
				User:         "test",
				Password:     "test",
				Database:     "test",
				MaxOpenConns: 5,
				MaxIdleConns: 10,
			},
			wantErr: true,
		},
		{
			name: "zero max open conns",
			cfg: Config{
				Host:         "localhost",
				Port:         5432,
				User:         "test",
				Password:     "test",
				Database:     "test",
				MaxOpenConns: 0,
				MaxIdleConns: 0,
			},
			wantErr: true,
		},
		{
			name: "negative idle conns",
			cfg: Config{
				Host:         "localhost",
				Port:         5432,
				User:         "test",
				Password:     "test",
				Database:     "test",
				MaxOpenConns: 10,
				MaxIdleConns: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
