package api

import "github.com/mentormind/mentormind/pkg/database"

// SubmitEvaluationResponse is returned by POST /evaluations/submit.
type SubmitEvaluationResponse struct {
	EvaluationID string `json:"evaluation_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// FeedbackResponse is returned by GET /evaluations/{id}/feedback. Status is
// "processing" while judged=false; every other field is populated once the
// judge pipeline completes (spec §6).
type FeedbackResponse struct {
	EvaluationID           string                    `json:"evaluation_id"`
	Status                 string                    `json:"status"`
	JudgeMetaScore         int                       `json:"judge_meta_score,omitempty"`
	OverallFeedback        string                    `json:"overall_feedback,omitempty"`
	AlignmentAnalysis      map[string]AlignmentEntry `json:"alignment_analysis,omitempty"`
	ImprovementAreas       []string                  `json:"improvement_areas,omitempty"`
	PositiveFeedback       []string                  `json:"positive_feedback,omitempty"`
	PastPatternsReferenced []string                  `json:"past_patterns_referenced,omitempty"`
}

// AlignmentEntry is one slug's stage-2 alignment row, mirrored from
// ent/schema.AlignmentEntry for the HTTP response shape.
type AlignmentEntry struct {
	UserScore  *int   `json:"user_score"`
	JudgeScore *int   `json:"judge_score"`
	Gap        *int   `json:"gap"`
	Verdict    string `json:"verdict"`
	Feedback   string `json:"feedback"`
}

// RetryResponse is returned by POST /evaluations/{id}/retry.
type RetryResponse struct {
	EvaluationID string `json:"evaluation_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// SnapshotListResponse is returned by GET /snapshots/.
type SnapshotListResponse struct {
	Items   []SnapshotSummary `json:"items"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// SnapshotSummary is one row of a snapshot listing.
type SnapshotSummary struct {
	SnapshotID    string  `json:"snapshot_id"`
	CreatedAt     string  `json:"created_at"`
	Category      string  `json:"category"`
	PrimaryMetric string  `json:"primary_metric"`
	MetaScore     int     `json:"meta_score"`
	WeightedGap   float64 `json:"weighted_gap"`
	Status        string  `json:"status"`
}

// SnapshotResponse is returned by GET /snapshots/{id}: the full payload
// named in spec §3.
type SnapshotResponse struct {
	SnapshotID          string                    `json:"snapshot_id"`
	CreatedAt           string                    `json:"created_at"`
	LearnerEvaluationID string                    `json:"learner_evaluation_id"`
	JudgeEvaluationID   string                    `json:"judge_evaluation_id"`
	QuestionText        string                    `json:"question_text"`
	ModelAnswerText     string                    `json:"model_answer_text"`
	ModelName           string                    `json:"model_name"`
	JudgeModelName      string                    `json:"judge_model_name"`
	PrimaryMetric       string                    `json:"primary_metric"`
	BonusMetrics        []string                  `json:"bonus_metrics"`
	Category            string                    `json:"category"`
	UserScores          map[string]*int           `json:"user_scores"`
	JudgeScores         map[string]*int           `json:"judge_scores"`
	EvidenceByMetric    map[string][]EvidenceItem `json:"evidence_by_metric,omitempty"`
	MetaScore           int                       `json:"meta_score"`
	WeightedGap         float64                   `json:"weighted_gap"`
	OverallFeedback     string                    `json:"overall_feedback"`
	ChatTurnCount       int                       `json:"chat_turn_count"`
	MaxChatTurns        int                       `json:"max_chat_turns"`
	Status              string                    `json:"status"`
	DeletedAt           *string                   `json:"deleted_at,omitempty"`
}

// EvidenceItem mirrors ent/schema.EvidenceItem for the HTTP response shape.
type EvidenceItem struct {
	Quote              string `json:"quote"`
	Start              int    `json:"start"`
	End                int    `json:"end"`
	Why                string `json:"why"`
	Better             string `json:"better"`
	Verified           bool   `json:"verified"`
	HighlightAvailable bool   `json:"highlight_available"`
}

// DeleteSnapshotResponse is returned by DELETE /snapshots/{id}.
type DeleteSnapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Message    string `json:"message"`
}

// ChatMessageResponse is one row in GET /snapshots/{id}/messages.
type ChatMessageResponse struct {
	ID              string   `json:"id"`
	ClientMessageID string   `json:"client_message_id"`
	Role            string   `json:"role"`
	Content         string   `json:"content"`
	SelectedMetrics []string `json:"selected_metrics,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database,omitempty"`
	Queue    *queueHealthView       `json:"queue,omitempty"`
}

// MetricsOverviewResponse is returned by GET /metrics/overview
// ([SUPPLEMENT], spec §4.10): the aggregator's compact performance summary
// across all judged evaluations.
type MetricsOverviewResponse struct {
	TotalEvaluations int                    `json:"total_evaluations"`
	AverageMetaScore float64                `json:"average_meta_score"`
	PerMetric        map[string]MetricStats `json:"per_metric"`
	ImprovementTrend string                 `json:"improvement_trend"`
}

// MetricStats is one metric's row in MetricsOverviewResponse.
type MetricStats struct {
	AvgPrimaryMetricGap float64 `json:"avg_primary_metric_gap"`
	Count               int     `json:"count"`
	Trend               string  `json:"trend"`
}

// queueHealthView mirrors queue.PoolHealth; declared locally so this file
// doesn't need to import pkg/queue just for a JSON shape (server.go already
// does, and assembles this value).
type queueHealthView struct {
	IsHealthy     bool `json:"is_healthy"`
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	QueueDepth    int  `json:"queue_depth"`
}
