package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/evaluationsnapshot"
	"github.com/mentormind/mentormind/ent/schema"
	"github.com/mentormind/mentormind/pkg/evidence"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// Service persists snapshots and serves the CRUD surface named in spec
// §4.7: get, list(status, limit, offset), soft_delete.
type Service struct {
	client *ent.Client
}

// NewService wires a Service to the shared ent client, the same
// single-client-field shape the teacher's service layer uses.
func NewService(client *ent.Client) *Service {
	return &Service{client: client}
}

// Create persists snap in one transaction (spec §4.7 step 5); failure
// rolls back and returns ErrSnapshotWrite so the orchestrator leaves the
// learner evaluation judged=false for retry.
func (s *Service) Create(httpCtx context.Context, snap *Snapshot) error {
	ctx, cancel := context.WithTimeout(httpCtx, 10*time.Second)
	defer cancel()

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return wrapWriteError(fmt.Errorf("begin transaction: %w", err))
	}

	userScores := scoresToJSON(snap.UserScores)
	judgeScores := scoresToJSON(snap.JudgeScores)

	builder := tx.EvaluationSnapshot.Create().
		SetID(snap.ID).
		SetCreatedAt(snap.CreatedAt).
		SetLearnerEvaluationID(snap.LearnerEvaluationID).
		SetJudgeEvaluationID(snap.JudgeEvaluationID).
		SetQuestionText(snap.QuestionText).
		SetModelAnswerText(snap.ModelAnswerText).
		SetModelName(snap.ModelName).
		SetJudgeModelName(snap.JudgeModelName).
		SetPrimaryMetric(string(snap.PrimaryMetric)).
		SetBonusMetrics(slugsToStrings(snap.BonusMetrics)).
		SetCategory(snap.Category).
		SetUserScores(userScores).
		SetJudgeScores(judgeScores).
		SetMetaScore(snap.MetaScore).
		SetWeightedGap(snap.WeightedGap).
		SetOverallFeedback(snap.OverallFeedback).
		SetChatTurnCount(snap.ChatTurnCount).
		SetMaxChatTurns(snap.MaxChatTurns).
		SetStatus(evaluationsnapshot.Status(snap.Status))

	if snap.EvidenceByMetric != nil {
		builder = builder.SetEvidenceByMetric(evidenceToJSON(snap.EvidenceByMetric))
	}

	if _, err := builder.Save(ctx); err != nil {
		_ = tx.Rollback()
		return wrapWriteError(fmt.Errorf("create snapshot row: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return wrapWriteError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Get returns the snapshot by id, excluding soft-deleted rows (spec §4.7
// "all reads filter deleted_at IS NULL").
func (s *Service) Get(httpCtx context.Context, id string) (*ent.EvaluationSnapshot, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	row, err := s.client.EvaluationSnapshot.Query().
		Where(evaluationsnapshot.IDEQ(id), evaluationsnapshot.DeletedAtIsNil()).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return row, nil
}

// List returns up to limit snapshots matching status (empty = any),
// ordered newest-first, excluding soft-deleted rows.
func (s *Service) List(httpCtx context.Context, status string, limit, offset int) ([]*ent.EvaluationSnapshot, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	q := s.client.EvaluationSnapshot.Query().Where(evaluationsnapshot.DeletedAtIsNil())
	if status != "" {
		q = q.Where(evaluationsnapshot.StatusEQ(evaluationsnapshot.Status(status)))
	}

	rows, err := q.
		Order(ent.Desc(evaluationsnapshot.FieldCreatedAt)).
		Limit(limit).
		Offset(offset).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return rows, nil
}

// SoftDelete sets deleted_at=now and status=archived (spec §4.7).
func (s *Service) SoftDelete(httpCtx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	n, err := s.client.EvaluationSnapshot.Update().
		Where(evaluationsnapshot.IDEQ(id), evaluationsnapshot.DeletedAtIsNil()).
		SetDeletedAt(time.Now().UTC()).
		SetStatus(evaluationsnapshot.StatusArchived).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("soft delete snapshot: %w", err)
	}
	if n == 0 {
		existing, getErr := s.client.EvaluationSnapshot.Get(ctx, id)
		if getErr == nil && existing.DeletedAt != nil {
			return ErrAlreadyDeleted
		}
		return ErrNotFound
	}
	return nil
}

func scoresToJSON(scores map[metrics.Slug]*int) map[string]*int {
	out := make(map[string]*int, len(scores))
	for slug, score := range scores {
		out[string(slug)] = score
	}
	return out
}

func slugsToStrings(slugs []metrics.Slug) []string {
	out := make([]string, len(slugs))
	for i, s := range slugs {
		out[i] = string(s)
	}
	return out
}

func evidenceToJSON(byMetric evidence.ByMetric) map[string][]schema.EvidenceItem {
	out := make(map[string][]schema.EvidenceItem, len(byMetric))
	for slug, items := range byMetric {
		converted := make([]schema.EvidenceItem, len(items))
		for i, it := range items {
			converted[i] = schema.EvidenceItem{
				Quote: it.Quote, Start: it.Start, End: it.End,
				Why: it.Why, Better: it.Better,
				Verified: it.Verified, HighlightAvailable: it.HighlightAvailable,
			}
		}
		out[string(slug)] = converted
	}
	return out
}
