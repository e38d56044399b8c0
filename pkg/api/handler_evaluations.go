package api

import (
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/judgeevaluation"
	"github.com/mentormind/mentormind/ent/modelanswer"
	"github.com/mentormind/mentormind/ent/schema"
	"github.com/mentormind/mentormind/pkg/idgen"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// submitEvaluationHandler handles POST /evaluations/submit (spec §6): an
// external collaborator's learner scores against one model response.
func (s *Server) submitEvaluationHandler(c *echo.Context) error {
	var req SubmitEvaluationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed request body")
	}

	if req.ResponseID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "response_id is required")
	}
	scores, err := validateEvaluationScores(req.Evaluations)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	modelAnswer, err := s.client.ModelAnswer.Query().
		Where(modelanswer.IDEQ(req.ResponseID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "response not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to look up response")
	}

	id := idgen.New("eval")
	if _, err := s.client.LearnerEvaluation.Create().
		SetID(id).
		SetQuestionID(modelAnswer.QuestionID).
		SetModelAnswerID(modelAnswer.ID).
		SetScores(scores).
		Save(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create evaluation")
	}

	return c.JSON(http.StatusOK, &SubmitEvaluationResponse{
		EvaluationID: id,
		Status:       "submitted",
		Message:      "evaluation queued for judging",
	})
}

// validateEvaluationScores checks the eight-slug shape spec §3 requires:
// exactly the closed metric set, each score nil or 1..5, reasoning
// non-empty iff its score is non-nil.
func validateEvaluationScores(in map[string]ScoreAndReason) (map[string]schema.LearnerEvaluationScore, error) {
	if len(in) != len(metrics.All) {
		return nil, fmt.Errorf("evaluations must have exactly %d entries", len(metrics.All))
	}

	out := make(map[string]schema.LearnerEvaluationScore, len(in))
	for _, slug := range metrics.All {
		entry, ok := in[string(slug)]
		if !ok {
			return nil, fmt.Errorf("missing evaluation entry for %q", slug)
		}
		if entry.Score != nil {
			if *entry.Score < 1 || *entry.Score > 5 {
				return nil, fmt.Errorf("score for %q must be 1..5", slug)
			}
			if entry.Reasoning == "" {
				return nil, fmt.Errorf("reasoning for %q is required when a score is given", slug)
			}
		} else if entry.Reasoning != "" {
			return nil, fmt.Errorf("reasoning for %q must be empty when score is null", slug)
		}
		out[string(slug)] = schema.LearnerEvaluationScore{Score: entry.Score, Reasoning: entry.Reasoning}
	}
	return out, nil
}

// getFeedbackHandler handles GET /evaluations/{id}/feedback.
func (s *Server) getFeedbackHandler(c *echo.Context) error {
	id := c.PathParam("id")
	ctx := c.Request().Context()

	le, err := s.client.LearnerEvaluation.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "evaluation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load evaluation")
	}

	if !le.Judged {
		return c.JSON(http.StatusOK, &FeedbackResponse{EvaluationID: id, Status: "processing"})
	}

	je, err := s.client.JudgeEvaluation.Query().
		Where(judgeevaluation.LearnerEvaluationIDEQ(id)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusInternalServerError, "evaluation is judged but has no judge result")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load judge result")
	}

	alignment := make(map[string]AlignmentEntry, len(je.AlignmentAnalysis))
	for slug, entry := range je.AlignmentAnalysis {
		alignment[slug] = AlignmentEntry{
			UserScore:  entry.UserScore,
			JudgeScore: entry.JudgeScore,
			Gap:        entry.Gap,
			Verdict:    entry.Verdict,
			Feedback:   entry.Feedback,
		}
	}

	return c.JSON(http.StatusOK, &FeedbackResponse{
		EvaluationID:           id,
		Status:                 "completed",
		JudgeMetaScore:         je.MetaScore,
		OverallFeedback:        je.OverallFeedback,
		AlignmentAnalysis:      alignment,
		ImprovementAreas:       je.ImprovementAreas,
		PositiveFeedback:       je.PositiveFeedback,
		PastPatternsReferenced: je.VectorContextSnapshot,
	})
}

// retryEvaluationHandler handles POST /evaluations/{id}/retry ([SUPPLEMENT]
// C19): clears a stuck claim so the worker pool can pick the row back up.
// Idempotent: already-judged evaluations are a no-op 200.
func (s *Server) retryEvaluationHandler(c *echo.Context) error {
	id := c.PathParam("id")
	ctx := c.Request().Context()

	le, err := s.client.LearnerEvaluation.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "evaluation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load evaluation")
	}

	if le.Judged {
		return c.JSON(http.StatusOK, &RetryResponse{
			EvaluationID: id,
			Status:       "completed",
			Message:      "evaluation already judged",
		})
	}

	if err := s.client.LearnerEvaluation.UpdateOneID(id).
		ClearClaimedAt().
		ClearClaimedBy().
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to requeue evaluation")
	}

	return c.JSON(http.StatusOK, &RetryResponse{
		EvaluationID: id,
		Status:       "queued",
		Message:      "evaluation requeued for judging",
	})
}
