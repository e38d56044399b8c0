package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/learnerevaluation"
	"github.com/mentormind/mentormind/pkg/config"
)

// orphanScanInterval is how often the pool looks for claims abandoned by a
// worker that crashed or was killed mid-run.
const orphanScanInterval = 30 * time.Second

// WorkerPool manages a pool of judge workers (spec §4.8's "background
// process"). Each worker polls for an unjudged, unclaimed LearnerEvaluation,
// claims it, and runs it through the judge orchestrator.
type WorkerPool struct {
	podID   string
	client  *ent.Client
	config  *config.QueueConfig
	runner  Runner
	workers []*Worker

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool

	orphans orphanState
}

type orphanState struct {
	mu               sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// NewWorkerPool creates a new worker pool. podID identifies this process in
// claim records and worker ids.
func NewWorkerPool(podID string, client *ent.Client, cfg *config.QueueConfig, runner Runner) *WorkerPool {
	return &WorkerPool{
		podID:   podID,
		client:  client,
		config:  cfg,
		runner:  runner,
		workers: make([]*Worker, 0, cfg.WorkerCount),
		stopCh:  make(chan struct{}),
	}
}

// Start spawns worker goroutines and the orphan-claim recovery task. Safe to
// call multiple times; subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return
	}
	p.started = true

	slog.Info("starting judge worker pool", "pod_id", p.podID, "worker_count", p.config.WorkerCount)

	for i := 0; i < p.config.WorkerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.podID, i)
		worker := NewWorker(workerID, p.podID, p.client, p.config, p.runner)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanRecovery(ctx)
	}()

	slog.Info("judge worker pool started")
}

// Stop signals all workers to stop and waits for in-flight runs to finish,
// up to GracefulShutdownTimeout.
func (p *WorkerPool) Stop() {
	slog.Info("stopping judge worker pool gracefully")

	p.stopOnce.Do(func() { close(p.stopCh) })

	done := make(chan struct{})
	go func() {
		for _, worker := range p.workers {
			worker.Stop()
		}
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("judge worker pool stopped gracefully")
	case <-time.After(p.config.GracefulShutdownTimeout):
		slog.Warn("judge worker pool shutdown timed out, some runs may be abandoned")
	}
}

// Health reports the pool's current status.
func (p *WorkerPool) Health() *PoolHealth {
	ctx := context.Background()

	queueDepth, err := p.client.LearnerEvaluation.Query().
		Where(
			learnerevaluation.JudgedEQ(false),
			learnerevaluation.ClaimedAtIsNil(),
		).
		Count(ctx)
	dbHealthy := err == nil
	var dbError string
	if err != nil {
		dbError = fmt.Sprintf("queue depth query failed: %v", err)
		slog.Error("failed to query queue depth for health check", "pod_id", p.podID, "error", err)
	}

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	p.orphans.mu.Lock()
	lastScan := p.orphans.lastOrphanScan
	recovered := p.orphans.orphansRecovered
	p.orphans.mu.Unlock()

	return &PoolHealth{
		IsHealthy:        len(p.workers) > 0 && dbHealthy,
		DBReachable:      dbHealthy,
		DBError:          dbError,
		PodID:            p.podID,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		QueueDepth:       queueDepth,
		WorkerStats:      workerStats,
		LastOrphanScan:   lastScan,
		OrphansRecovered: recovered,
	}
}

// orphanClaimTimeout is how long a claim may sit un-judged before it is
// considered abandoned (two full stage timeouts plus headroom for the
// snapshot write and memory round-trips between them).
func (p *WorkerPool) orphanClaimTimeout() time.Duration {
	return 2*p.config.JudgeStageTimeout + time.Minute
}

// runOrphanRecovery periodically clears claims left behind by a worker that
// died mid-run, so another worker can pick the row back up.
func (p *WorkerPool) runOrphanRecovery(ctx context.Context) {
	ticker := time.NewTicker(orphanScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.recoverOrphans(ctx)
		}
	}
}

func (p *WorkerPool) recoverOrphans(ctx context.Context) {
	cutoff := time.Now().Add(-p.orphanClaimTimeout())

	n, err := p.client.LearnerEvaluation.Update().
		Where(
			learnerevaluation.JudgedEQ(false),
			learnerevaluation.ClaimedAtNotNil(),
			learnerevaluation.ClaimedAtLT(cutoff),
		).
		ClearClaimedAt().
		ClearClaimedBy().
		Save(ctx)

	p.orphans.mu.Lock()
	p.orphans.lastOrphanScan = time.Now()
	if err == nil {
		p.orphans.orphansRecovered += n
	}
	p.orphans.mu.Unlock()

	if err != nil {
		slog.Error("orphan claim recovery failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("recovered orphaned judge claims", "count", n)
	}
}
