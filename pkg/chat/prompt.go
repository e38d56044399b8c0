package chat

import (
	"fmt"
	"strings"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/schema"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// coachSystemPrompt is the coach rules contract of spec §4.9: evidence-only
// citation, metric-set confinement, Turkish output for this deployment.
const coachSystemPrompt = `You are a coaching assistant helping a learner understand the gap between their self-assessment and an independent judge's scoring, for one evaluation snapshot. You may reference only the evidence items provided to you; never invent or paraphrase a new quotation from the model answer. Stay strictly within the metrics the learner selected for this session — if asked about a metric outside that set, politely decline and redirect to the selected metrics. Respond in Turkish.`

// BuildSnapshotContext renders the snapshot payload restricted to
// selectedMetrics: scores, feedback, and evidence exactly as stored (spec
// §4.9 "the snapshot payload restricted to the session's selected_metrics").
func BuildSnapshotContext(snap *ent.EvaluationSnapshot, selectedMetrics []metrics.Slug) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nModel answer: %s\n\n", snap.QuestionText, snap.ModelAnswerText)
	b.WriteString("Metrics in scope for this session:\n")
	for _, slug := range selectedMetrics {
		u := snap.UserScores[string(slug)]
		j := snap.JudgeScores[string(slug)]
		fmt.Fprintf(&b, "- %s: learner=%s judge=%s\n", slug, scorePtrText(u), scorePtrText(j))
		for _, item := range evidenceFor(snap, slug) {
			if !item.Verified {
				continue
			}
			fmt.Fprintf(&b, "  evidence: %q — %s (better: %s)\n", item.Quote, item.Why, item.Better)
		}
	}
	fmt.Fprintf(&b, "\nOverall feedback: %s\n", snap.OverallFeedback)
	return b.String()
}

func evidenceFor(snap *ent.EvaluationSnapshot, slug metrics.Slug) []schema.EvidenceItem {
	if snap.EvidenceByMetric == nil {
		return nil
	}
	return snap.EvidenceByMetric[string(slug)]
}

func scorePtrText(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}

// BuildWindowPrompt assembles the user-turn prompt from the snapshot
// context, the rolling window of completed messages, and the learner's new
// message.
func BuildWindowPrompt(snapshotContext string, window []WindowMessage, newMessage string) string {
	var b strings.Builder
	b.WriteString(snapshotContext)
	if len(window) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, m := range window {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	fmt.Fprintf(&b, "\nLearner: %s\n", newMessage)
	return b.String()
}

// WindowMessage is one completed message in the rolling conversation window
// (spec §4.9 "rolling window of the last six completed messages").
type WindowMessage struct {
	Role    string
	Content string
}

// BuildInitPrompt assembles the opening-summary prompt for the init greeting
// (spec §4.9 "generate an opening summary from the selected metrics' gaps
// and evidence").
func BuildInitPrompt(snapshotContext string) string {
	return snapshotContext + "\nWrite a short opening summary of the gaps and evidence above to start this coaching session."
}
