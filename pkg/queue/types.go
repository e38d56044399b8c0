// Package queue implements the background judge worker pool (spec §4.8,
// SPEC_FULL.md §4.18): a bounded set of goroutines that poll for unjudged
// learner evaluations and drive them through the judge orchestrator.
package queue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for queue operations.
var (
	// ErrNoEvaluationsAvailable indicates no unclaimed, unjudged evaluations
	// are currently in the queue.
	ErrNoEvaluationsAvailable = errors.New("no evaluations available")
)

// Runner is the judge pipeline the worker pool drives. judge.Orchestrator
// satisfies this with its Run method; tests supply a stub.
type Runner interface {
	Run(ctx context.Context, learnerEvaluationID string) error
}

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	DBReachable      bool           `json:"db_reachable"`
	DBError          string         `json:"db_error,omitempty"`
	PodID            string         `json:"pod_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	QueueDepth       int            `json:"queue_depth"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID                   string    `json:"id"`
	Status               string    `json:"status"` // "idle" or "working"
	CurrentEvaluationID  string    `json:"current_evaluation_id,omitempty"`
	EvaluationsProcessed int       `json:"evaluations_processed"`
	LastActivity         time.Time `json:"last_activity"`
}
