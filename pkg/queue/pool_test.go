package queue

import (
	"testing"
	"time"

	"github.com/mentormind/mentormind/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestOrphanClaimTimeoutScalesWithStageTimeout(t *testing.T) {
	p := &WorkerPool{config: &config.QueueConfig{JudgeStageTimeout: 90 * time.Second}}
	assert.Equal(t, 2*90*time.Second+time.Minute, p.orphanClaimTimeout())
}

func TestNewWorkerPoolSizesWorkerSlice(t *testing.T) {
	cfg := &config.QueueConfig{WorkerCount: 4}
	p := NewWorkerPool("pod-1", nil, cfg, nil)
	assert.Equal(t, 0, len(p.workers))
	assert.Equal(t, 4, cap(p.workers))
}
