// Package snapshot implements the snapshot assembler (spec §4.7): the
// single atomic denormalized record produced when the judge pipeline
// succeeds, plus its CRUD surface.
package snapshot

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/judge"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// Snapshot is the in-memory shape of an evaluation snapshot, independent of
// the ent-generated persistence type.
type Snapshot struct {
	ID                string
	CreatedAt         time.Time
	LearnerEvaluationID string
	JudgeEvaluationID string
	QuestionText      string
	ModelAnswerText   string
	ModelName         string
	JudgeModelName    string
	PrimaryMetric     metrics.Slug
	BonusMetrics      []metrics.Slug
	Category          string
	UserScores        map[metrics.Slug]*int
	JudgeScores       map[metrics.Slug]*int
	EvidenceByMetric  evidence.ByMetric // nil on graceful degradation
	MetaScore         int
	WeightedGap       float64
	OverallFeedback   string
	ChatTurnCount     int
	MaxChatTurns      int
	Status            string
}

// AssembleInput bundles stage-1/stage-2 output and the source records
// needed to build a snapshot (spec §4.7, step 1-4).
type AssembleInput struct {
	Stage1          *judge.Stage1Result
	Stage2          *judge.Stage2Result
	LearnerEvaluationID string
	JudgeEvaluationID string
	JudgeModelName  string
	QuestionText    string
	QuestionCategory string
	PrimaryMetric   metrics.Slug
	BonusMetrics    []metrics.Slug
	ModelAnswerText string
	ModelName       string
	UserScores      map[metrics.Slug]*int
	MaxChatTurns    int
}

// Assemble implements create_snapshot (spec §4.7): generates the snapshot
// id, converts to slugs (callers already use slugs throughout — metrics.Slug
// is the only key type in this package, so step 2 of the spec's algorithm
// is enforced by the type system rather than a runtime conversion step),
// carries Stage-1's already-verified evidence through unchanged (nil on
// graceful degradation), and returns the row ready to persist in one
// transaction.
func Assemble(input AssembleInput) (*Snapshot, error) {
	id, err := NewSnapshotID(time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("snapshot: generate id: %w", err)
	}

	judgeScores := make(map[metrics.Slug]*int, len(input.Stage1.IndependentScores))
	for slug, entry := range input.Stage1.IndependentScores {
		judgeScores[slug] = entry.Score
	}

	maxTurns := input.MaxChatTurns
	if maxTurns <= 0 {
		maxTurns = 15
	}

	return &Snapshot{
		ID:                  id,
		CreatedAt:            time.Now().UTC(),
		LearnerEvaluationID: input.LearnerEvaluationID,
		JudgeEvaluationID:   input.JudgeEvaluationID,
		QuestionText:        input.QuestionText,
		ModelAnswerText:     input.ModelAnswerText,
		ModelName:           input.ModelName,
		JudgeModelName:      input.JudgeModelName,
		PrimaryMetric:       input.PrimaryMetric,
		BonusMetrics:        input.BonusMetrics,
		Category:            input.QuestionCategory,
		UserScores:          input.UserScores,
		JudgeScores:         judgeScores,
		EvidenceByMetric:    input.Stage1.Evidence, // already nil on degradation
		MetaScore:           input.Stage2.MetaScore,
		WeightedGap:         input.Stage2.WeightedGap,
		OverallFeedback:     input.Stage2.OverallFeedback,
		ChatTurnCount:       0,
		MaxChatTurns:        maxTurns,
		Status:              "active",
	}, nil
}

// NewSnapshotID generates an id of the form snap_<UTC-date>_<UTC-time>_<hex>
// with a 6-byte lowercase hex suffix (spec §3, §6, §4.7).
func NewSnapshotID(at time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	return fmt.Sprintf("snap_%s_%s_%s", at.Format("20060102"), at.Format("150405"), hex.EncodeToString(buf)), nil
}
