package config

import "time"

// QueueConfig contains judge worker pool configuration. These values
// control how many learner evaluations are judged concurrently and how
// long a single judge run is allowed to take (§4.8, §5).
type QueueConfig struct {
	// WorkerCount is the number of goroutines polling the judge queue.
	WorkerCount int `yaml:"worker_count"`

	// PollInterval is the base interval for checking for queued evaluations.
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollIntervalJitter is the random jitter added to PollInterval.
	// Actual interval: PollInterval ± PollIntervalJitter.
	PollIntervalJitter time.Duration `yaml:"poll_interval_jitter"`

	// JudgeStageTimeout is the per-stage deadline for Stage-1/Stage-2 LLM
	// calls (the judge_stage_timeout configuration option).
	JudgeStageTimeout time.Duration `yaml:"judge_stage_timeout"`

	// GracefulShutdownTimeout is the max time to wait for in-flight judge
	// runs to complete during shutdown.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             3,
		PollInterval:            1 * time.Second,
		PollIntervalJitter:      250 * time.Millisecond,
		JudgeStageTimeout:       90 * time.Second,
		GracefulShutdownTimeout: 2 * time.Minute,
	}
}
