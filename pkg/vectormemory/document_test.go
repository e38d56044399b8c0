package vectormemory

import (
	"strings"
	"testing"

	"github.com/mentormind/mentormind/pkg/metrics"
	"github.com/stretchr/testify/assert"
)

func TestBuildSummaryBoundedLength(t *testing.T) {
	longFeedback := strings.Repeat("x", 1000)
	u, j := 4, 3
	summary := BuildSummary("debugging", metrics.Truthfulness, &u, &j, 4, 1.0, 0.8, longFeedback)
	assert.LessOrEqual(t, len(summary), 500)
	assert.Contains(t, summary, "Category: debugging")
	assert.Contains(t, summary, "Primary metric: truthfulness")
}

func TestBuildSummaryHandlesNilScores(t *testing.T) {
	summary := BuildSummary("general", metrics.Safety, nil, nil, 5, 0, 0, "fine")
	assert.Contains(t, summary, "User scored n/a")
	assert.Contains(t, summary, "judge scored n/a")
}

func TestQueryTextFormat(t *testing.T) {
	got := QueryText(metrics.Helpfulness, "coding")
	assert.Equal(t, "User evaluating helpfulness in coding category", got)
}
