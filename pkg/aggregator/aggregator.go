// Package aggregator implements the metric-performance overview (spec
// §4.10): total evaluations, average meta-score, and a per-metric trend
// classification comparing the last ten scored rows against the preceding
// ten.
package aggregator

import (
	"github.com/mentormind/mentormind/pkg/metrics"
)

// Trend classifies a metric's recent trajectory.
type Trend string

const (
	TrendImproving      Trend = "improving"
	TrendStable         Trend = "stable"
	TrendDeclining      Trend = "declining"
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	recentWindow    = 10
	minRecentForTrend = 5
	stableThreshold = 0.15
)

// MetricStats is one metric's row in the overview.
type MetricStats struct {
	AvgPrimaryMetricGap float64
	Count               int
	Trend               Trend
}

// Overview is the compact aggregator output (spec §4.10).
type Overview struct {
	TotalEvaluations  int
	AverageMetaScore  float64
	PerMetric         map[metrics.Slug]MetricStats
	ImprovementTrend  string
}

// Record is one judged evaluation's contribution to the overview, ordered
// newest-first by the caller before being grouped per metric.
type Record struct {
	PrimaryMetric metrics.Slug
	PrimaryGap    float64
	MetaScore     int
}

// Aggregate computes the overview from rows, newest-first overall. Per-metric
// trend windows are computed against each metric's own newest-first subsequence.
func Aggregate(rows []Record) Overview {
	overview := Overview{
		TotalEvaluations: len(rows),
		PerMetric:        make(map[metrics.Slug]MetricStats),
	}
	if len(rows) == 0 {
		overview.ImprovementTrend = "No evaluations recorded yet."
		return overview
	}

	var metaSum int
	byMetric := make(map[metrics.Slug][]Record)
	for _, r := range rows {
		metaSum += r.MetaScore
		byMetric[r.PrimaryMetric] = append(byMetric[r.PrimaryMetric], r)
	}
	overview.AverageMetaScore = float64(metaSum) / float64(len(rows))

	improvingCount, decliningCount := 0, 0
	for _, slug := range metrics.All {
		metricRows, ok := byMetric[slug]
		if !ok {
			continue
		}
		gaps := make([]float64, len(metricRows))
		for i, r := range metricRows {
			gaps[i] = r.PrimaryGap
		}
		trend := ClassifyTrend(gaps)
		overview.PerMetric[slug] = MetricStats{
			AvgPrimaryMetricGap: mean(gaps),
			Count:               len(gaps),
			Trend:               trend,
		}
		switch trend {
		case TrendImproving:
			improvingCount++
		case TrendDeclining:
			decliningCount++
		}
	}

	overview.ImprovementTrend = summarizeTrend(improvingCount, decliningCount, len(overview.PerMetric))
	return overview
}

// ClassifyTrend compares the mean gap over the most recent ten scored rows
// (gaps[0:10]) against the preceding ten (gaps[10:20]); gaps must be
// newest-first. Fewer than five recent rows, or no prior rows to compare
// against, yields insufficient_data (spec §4.10).
func ClassifyTrend(gapsNewestFirst []float64) Trend {
	if len(gapsNewestFirst) < minRecentForTrend {
		return TrendInsufficientData
	}

	recentEnd := min(recentWindow, len(gapsNewestFirst))
	recent := gapsNewestFirst[:recentEnd]
	if recentEnd >= len(gapsNewestFirst) {
		return TrendInsufficientData
	}
	priorEnd := min(recentEnd+recentWindow, len(gapsNewestFirst))
	prior := gapsNewestFirst[recentEnd:priorEnd]
	if len(prior) == 0 {
		return TrendInsufficientData
	}

	delta := mean(recent) - mean(prior)
	switch {
	case delta > -stableThreshold && delta < stableThreshold:
		return TrendStable
	case delta < 0:
		return TrendImproving
	default:
		return TrendDeclining
	}
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func summarizeTrend(improving, declining, totalMetrics int) string {
	switch {
	case totalMetrics == 0:
		return "Not enough data yet to show a trend."
	case improving > declining:
		return "Overall calibration is improving across most metrics."
	case declining > improving:
		return "Overall calibration is declining on more metrics than it is improving."
	default:
		return "Overall calibration is holding steady."
	}
}
