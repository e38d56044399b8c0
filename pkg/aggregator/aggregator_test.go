package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mentormind/mentormind/pkg/metrics"
)

func TestAggregateEmpty(t *testing.T) {
	overview := Aggregate(nil)
	assert.Equal(t, 0, overview.TotalEvaluations)
	assert.Equal(t, "No evaluations recorded yet.", overview.ImprovementTrend)
}

func TestAggregateComputesAverageMetaScore(t *testing.T) {
	rows := []Record{
		{PrimaryMetric: metrics.Truthfulness, PrimaryGap: 0.5, MetaScore: 4},
		{PrimaryMetric: metrics.Truthfulness, PrimaryGap: 0.5, MetaScore: 2},
	}
	overview := Aggregate(rows)
	assert.Equal(t, 2, overview.TotalEvaluations)
	assert.Equal(t, 3.0, overview.AverageMetaScore)
}

func TestAggregateGroupsPerMetric(t *testing.T) {
	rows := []Record{
		{PrimaryMetric: metrics.Safety, PrimaryGap: 1.0, MetaScore: 3},
		{PrimaryMetric: metrics.Bias, PrimaryGap: 2.0, MetaScore: 3},
	}
	overview := Aggregate(rows)
	assert.Contains(t, overview.PerMetric, metrics.Safety)
	assert.Contains(t, overview.PerMetric, metrics.Bias)
	assert.Equal(t, 1, overview.PerMetric[metrics.Safety].Count)
}

func TestClassifyTrendInsufficientData(t *testing.T) {
	assert.Equal(t, TrendInsufficientData, ClassifyTrend([]float64{0.1, 0.2}))
}

func TestClassifyTrendNoPriorWindow(t *testing.T) {
	gaps := []float64{0.1, 0.1, 0.1, 0.1, 0.1}
	assert.Equal(t, TrendInsufficientData, ClassifyTrend(gaps))
}

func TestClassifyTrendImproving(t *testing.T) {
	// Recent (first 10) gaps much lower than prior (next 10): improving.
	recent := make([]float64, 10)
	prior := make([]float64, 10)
	for i := range recent {
		recent[i] = 0.1
		prior[i] = 1.0
	}
	gaps := append(recent, prior...)
	assert.Equal(t, TrendImproving, ClassifyTrend(gaps))
}

func TestClassifyTrendDeclining(t *testing.T) {
	recent := make([]float64, 10)
	prior := make([]float64, 10)
	for i := range recent {
		recent[i] = 1.0
		prior[i] = 0.1
	}
	gaps := append(recent, prior...)
	assert.Equal(t, TrendDeclining, ClassifyTrend(gaps))
}

func TestClassifyTrendStable(t *testing.T) {
	recent := make([]float64, 10)
	prior := make([]float64, 10)
	for i := range recent {
		recent[i] = 0.5
		prior[i] = 0.55
	}
	gaps := append(recent, prior...)
	assert.Equal(t, TrendStable, ClassifyTrend(gaps))
}
