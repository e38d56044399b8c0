package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/learnerevaluation"
	"github.com/mentormind/mentormind/pkg/config"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker is a single judge queue worker that polls for and processes
// unjudged learner evaluations.
type Worker struct {
	id     string
	podID  string
	client *ent.Client
	config *config.QueueConfig
	runner Runner

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu                   sync.RWMutex
	status               WorkerStatus
	currentEvaluationID  string
	evaluationsProcessed int
	lastActivity         time.Time
}

// NewWorker creates a new judge queue worker.
func NewWorker(id, podID string, client *ent.Client, cfg *config.QueueConfig, runner Runner) *Worker {
	return &Worker{
		id:           id,
		podID:        podID,
		client:       client,
		config:       cfg,
		runner:       runner,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for its current run to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:                   w.id,
		Status:               string(w.status),
		CurrentEvaluationID:  w.currentEvaluationID,
		EvaluationsProcessed: w.evaluationsProcessed,
		LastActivity:         w.lastActivity,
	}
}

// run is the main worker loop.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id, "pod_id", w.podID)
	log.Info("judge worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("judge worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, judge worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoEvaluationsAvailable) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing learner evaluation", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

// sleep waits for the given duration or until stop is signalled.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess claims the next unjudged evaluation and runs it through
// the judge orchestrator.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	id, err := w.claimNext(ctx)
	if err != nil {
		return err
	}

	log := slog.With("learner_evaluation_id", id, "worker_id", w.id)
	log.Info("learner evaluation claimed")

	w.setStatus(WorkerStatusWorking, id)
	defer w.setStatus(WorkerStatusIdle, "")

	runCtx, cancel := context.WithTimeout(ctx, 2*w.config.JudgeStageTimeout+time.Minute)
	defer cancel()

	if err := w.runner.Run(runCtx, id); err != nil {
		// Leave judged=false and clear the claim so another worker (or a
		// later retry) can pick the row back up; judge.Orchestrator.Run is
		// itself idempotent on an already-judged row.
		log.Error("judge run failed, clearing claim for retry", "error", err)
		if clearErr := w.clearClaim(context.Background(), id); clearErr != nil {
			log.Error("failed to clear claim after failed run", "error", clearErr)
		}
		return fmt.Errorf("judge run: %w", err)
	}

	w.mu.Lock()
	w.evaluationsProcessed++
	w.mu.Unlock()

	log.Info("learner evaluation judged")
	return nil
}

// claimNext atomically claims the oldest unjudged, unclaimed evaluation
// using SELECT ... FOR UPDATE SKIP LOCKED, mirroring the row-claim pattern
// used for concurrent queue pickup elsewhere in the stack.
func (w *Worker) claimNext(ctx context.Context) (string, error) {
	tx, err := w.client.Tx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row, err := tx.LearnerEvaluation.Query().
		Where(
			learnerevaluation.JudgedEQ(false),
			learnerevaluation.ClaimedAtIsNil(),
		).
		Order(ent.Asc(learnerevaluation.FieldCreatedAt)).
		Limit(1).
		ForUpdate(sql.WithLockAction(sql.SkipLocked)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return "", ErrNoEvaluationsAvailable
		}
		return "", fmt.Errorf("failed to query unclaimed evaluation: %w", err)
	}

	now := time.Now().UTC()
	if err := tx.LearnerEvaluation.UpdateOneID(row.ID).
		SetClaimedAt(now).
		SetClaimedBy(w.id).
		Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to claim evaluation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit claim: %w", err)
	}

	return row.ID, nil
}

// clearClaim releases a claim after a failed run so the row becomes
// eligible for another attempt.
func (w *Worker) clearClaim(ctx context.Context, id string) error {
	return w.client.LearnerEvaluation.UpdateOneID(id).
		ClearClaimedAt().
		ClearClaimedBy().
		Exec(ctx)
}

// pollInterval returns the poll duration with jitter.
func (w *Worker) pollInterval() time.Duration {
	base := w.config.PollInterval
	jitter := w.config.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

// setStatus updates the worker's health tracking state.
func (w *Worker) setStatus(status WorkerStatus, evaluationID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentEvaluationID = evaluationID
	w.lastActivity = time.Now()
}
