package evidence

import (
	"log/slog"

	"github.com/mentormind/mentormind/pkg/metrics"
)

// ByMetric maps a metric slug to its ordered evidence items, as produced by
// judge stage-1 parsing and consumed by the snapshot assembler.
type ByMetric map[metrics.Slug][]Item

// Process runs Verify over every item in evidenceByMetric against
// modelAnswer and logs the (verified, total) tally. It never errors — a
// payload-level parse failure upstream is handled by the caller storing
// evidence=nil, not by this function.
func Process(modelAnswer string, evidenceByMetric ByMetric, opts Options) ByMetric {
	if evidenceByMetric == nil {
		return nil
	}

	out := make(ByMetric, len(evidenceByMetric))
	var verified, total int

	for slug, items := range evidenceByMetric {
		verifiedItems := make([]Item, len(items))
		for i, item := range items {
			v := Verify(modelAnswer, item, opts)
			verifiedItems[i] = v
			total++
			if v.Verified {
				verified++
			}
		}
		out[slug] = verifiedItems
	}

	slog.Info("evidence verification complete", "verified", verified, "total", total)
	return out
}
