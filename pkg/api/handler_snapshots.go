package api

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/chatmessage"
)

const (
	defaultSnapshotPage    = 1
	defaultSnapshotPerPage = 20
	maxSnapshotPerPage     = 100
)

// listSnapshotsHandler handles GET /snapshots/: paginated, optionally
// filtered by status, newest-first, soft-deleted rows always excluded.
func (s *Server) listSnapshotsHandler(c *echo.Context) error {
	page := parsePositiveIntOr(c.QueryParam("page"), defaultSnapshotPage)
	perPage := parsePositiveIntOr(c.QueryParam("per_page"), defaultSnapshotPerPage)
	if perPage > maxSnapshotPerPage {
		perPage = maxSnapshotPerPage
	}
	status := c.QueryParam("status")

	ctx := c.Request().Context()
	rows, err := s.snapshotService.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return mapSnapshotError(err)
	}

	items := make([]SnapshotSummary, len(rows))
	for i, row := range rows {
		items[i] = SnapshotSummary{
			SnapshotID:    row.ID,
			CreatedAt:     row.CreatedAt.UTC().Format(time.RFC3339),
			Category:      row.Category,
			PrimaryMetric: row.PrimaryMetric,
			MetaScore:     row.MetaScore,
			WeightedGap:   row.WeightedGap,
			Status:        string(row.Status),
		}
	}

	return c.JSON(http.StatusOK, &SnapshotListResponse{
		Items:   items,
		Total:   len(items),
		Page:    page,
		PerPage: perPage,
	})
}

func parsePositiveIntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// getSnapshotHandler handles GET /snapshots/{id}: the full payload named in
// spec §3.
func (s *Server) getSnapshotHandler(c *echo.Context) error {
	id := c.PathParam("id")
	ctx := c.Request().Context()

	row, err := s.snapshotService.Get(ctx, id)
	if err != nil {
		return mapSnapshotError(err)
	}

	return c.JSON(http.StatusOK, snapshotToResponse(row))
}

func snapshotToResponse(row *ent.EvaluationSnapshot) *SnapshotResponse {
	resp := &SnapshotResponse{
		SnapshotID:          row.ID,
		CreatedAt:           row.CreatedAt.UTC().Format(time.RFC3339),
		LearnerEvaluationID: row.LearnerEvaluationID,
		JudgeEvaluationID:   row.JudgeEvaluationID,
		QuestionText:        row.QuestionText,
		ModelAnswerText:     row.ModelAnswerText,
		ModelName:           row.ModelName,
		JudgeModelName:      row.JudgeModelName,
		PrimaryMetric:       row.PrimaryMetric,
		BonusMetrics:        row.BonusMetrics,
		Category:            row.Category,
		UserScores:          row.UserScores,
		JudgeScores:         row.JudgeScores,
		MetaScore:           row.MetaScore,
		WeightedGap:         row.WeightedGap,
		OverallFeedback:     row.OverallFeedback,
		ChatTurnCount:       row.ChatTurnCount,
		MaxChatTurns:        row.MaxChatTurns,
		Status:              string(row.Status),
	}
	if row.DeletedAt != nil {
		ts := row.DeletedAt.UTC().Format(time.RFC3339)
		resp.DeletedAt = &ts
	}
	if row.EvidenceByMetric != nil {
		resp.EvidenceByMetric = make(map[string][]EvidenceItem, len(row.EvidenceByMetric))
		for slug, items := range row.EvidenceByMetric {
			converted := make([]EvidenceItem, len(items))
			for i, it := range items {
				converted[i] = EvidenceItem{
					Quote: it.Quote, Start: it.Start, End: it.End,
					Why: it.Why, Better: it.Better,
					Verified: it.Verified, HighlightAvailable: it.HighlightAvailable,
				}
			}
			resp.EvidenceByMetric[slug] = converted
		}
	}
	return resp
}

// deleteSnapshotHandler handles DELETE /snapshots/{id}: soft delete,
// idempotent per spec §4.7 (a second call on an already-deleted snapshot
// returns 409 via mapSnapshotError, not a crash).
func (s *Server) deleteSnapshotHandler(c *echo.Context) error {
	id := c.PathParam("id")
	ctx := c.Request().Context()

	if err := s.snapshotService.SoftDelete(ctx, id); err != nil {
		return mapSnapshotError(err)
	}

	return c.JSON(http.StatusOK, &DeleteSnapshotResponse{
		SnapshotID: id,
		Message:    "snapshot deleted",
	})
}

// listMessagesHandler handles GET /snapshots/{id}/messages: the completed
// chat history, chronological. In-flight (is_complete=false) rows are
// resumption-only and never surfaced here.
func (s *Server) listMessagesHandler(c *echo.Context) error {
	id := c.PathParam("id")
	ctx := c.Request().Context()

	if _, err := s.snapshotService.Get(ctx, id); err != nil {
		return mapSnapshotError(err)
	}

	rows, err := s.client.ChatMessage.Query().
		Where(chatmessage.SnapshotIDEQ(id), chatmessage.IsCompleteEQ(true)).
		Order(ent.Asc(chatmessage.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load messages")
	}

	out := make([]ChatMessageResponse, len(rows))
	for i, row := range rows {
		out[i] = ChatMessageResponse{
			ID:              row.ID,
			ClientMessageID: row.ClientMessageID,
			Role:            string(row.Role),
			Content:         row.Content,
			SelectedMetrics: row.SelectedMetrics,
			CreatedAt:       row.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return c.JSON(http.StatusOK, out)
}
