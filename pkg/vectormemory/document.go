package vectormemory

import (
	"fmt"
	"strings"

	"github.com/mentormind/mentormind/pkg/metrics"
)

// BuildSummary formats the ~500-byte retrieval document text for a judged
// learner evaluation (spec §3, §4.6). It is the text embedded and inserted;
// the query side embeds QueryText instead.
func BuildSummary(category string, primaryMetric metrics.Slug, userScore, judgeScore *int, metaScore int, primaryGap, weightedGap float64, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s. Primary metric: %s. ", category, primaryMetric)
	fmt.Fprintf(&b, "User scored %s, judge scored %s. ", scoreText(userScore), scoreText(judgeScore))
	fmt.Fprintf(&b, "Meta-score: %d/5. Primary gap: %.1f. Weighted gap: %.1f. ", metaScore, primaryGap, weightedGap)
	b.WriteString(truncate(feedback, 300))
	return truncate(b.String(), 500)
}

// QueryText builds the fixed-shape similarity-search query text (spec
// §4.6): "User evaluating {metric} in {category} category".
func QueryText(primaryMetric metrics.Slug, category string) string {
	return fmt.Sprintf("User evaluating %s in %s category", primaryMetric, category)
}

func scoreText(s *int) string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
