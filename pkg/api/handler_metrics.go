package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/judgeevaluation"
	"github.com/mentormind/mentormind/pkg/aggregator"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// metricsOverviewHandler handles GET /metrics/overview ([SUPPLEMENT], spec
// §4.10): the closed-set metric performance overview across every judged
// evaluation, newest-first.
func (s *Server) metricsOverviewHandler(c *echo.Context) error {
	ctx := c.Request().Context()

	rows, err := s.client.JudgeEvaluation.Query().
		Order(ent.Desc(judgeevaluation.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load judge evaluations")
	}

	records := make([]aggregator.Record, 0, len(rows))
	for _, row := range rows {
		slug, err := metrics.ParseSlug(row.PrimaryMetric)
		if err != nil {
			continue
		}
		records = append(records, aggregator.Record{
			PrimaryMetric: slug,
			PrimaryGap:    row.PrimaryMetricGap,
			MetaScore:     row.MetaScore,
		})
	}

	overview := aggregator.Aggregate(records)

	perMetric := make(map[string]MetricStats, len(overview.PerMetric))
	for slug, stats := range overview.PerMetric {
		perMetric[string(slug)] = MetricStats{
			AvgPrimaryMetricGap: stats.AvgPrimaryMetricGap,
			Count:               stats.Count,
			Trend:               string(stats.Trend),
		}
	}

	return c.JSON(http.StatusOK, &MetricsOverviewResponse{
		TotalEvaluations: overview.TotalEvaluations,
		AverageMetaScore: overview.AverageMetaScore,
		PerMetric:        perMetric,
		ImprovementTrend: overview.ImprovementTrend,
	})
}
