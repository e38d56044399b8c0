package queue

import (
	"testing"
	"time"

	"github.com/mentormind/mentormind/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPollIntervalWithinJitterBounds(t *testing.T) {
	w := &Worker{config: &config.QueueConfig{
		PollInterval:       1 * time.Second,
		PollIntervalJitter: 250 * time.Millisecond,
	}}

	for i := 0; i < 50; i++ {
		d := w.pollInterval()
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}

func TestWorkerPollIntervalNoJitter(t *testing.T) {
	w := &Worker{config: &config.QueueConfig{
		PollInterval:       2 * time.Second,
		PollIntervalJitter: 0,
	}}
	assert.Equal(t, 2*time.Second, w.pollInterval())
}

func TestWorkerHealthReflectsSetStatus(t *testing.T) {
	w := NewWorker("w-0", "pod-1", nil, &config.QueueConfig{}, nil)
	health := w.Health()
	assert.Equal(t, string(WorkerStatusIdle), health.Status)
	assert.Equal(t, "w-0", health.ID)

	w.setStatus(WorkerStatusWorking, "le_abc")
	health = w.Health()
	assert.Equal(t, string(WorkerStatusWorking), health.Status)
	assert.Equal(t, "le_abc", health.CurrentEvaluationID)

	w.setStatus(WorkerStatusIdle, "")
	health = w.Health()
	assert.Equal(t, string(WorkerStatusIdle), health.Status)
	assert.Empty(t, health.CurrentEvaluationID)
}
