package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/mentormind/mentormind/ent/evaluationsnapshot"
	"github.com/mentormind/mentormind/pkg/chat"
	"github.com/mentormind/mentormind/pkg/llmgateway"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// chatHandler handles POST /snapshots/{id}/chat (spec §6): an SSE stream of
// the coach's reply, or an immediate cached response.
//
// The snapshot existence/status check runs here, before chat.Engine.Send,
// so the 404 (missing) vs 409 (archived) distinction spec §6 requires can
// be made explicitly: chat.ErrSnapshotUnavailable alone doesn't carry that
// distinction, since Send wraps both cases in the same sentinel.
func (s *Server) chatHandler(c *echo.Context) error {
	id := c.PathParam("id")
	ctx := c.Request().Context()

	var req ChatTurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "malformed request body")
	}

	snap, err := s.client.EvaluationSnapshot.Query().
		Where(evaluationsnapshot.IDEQ(id)).
		Only(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "snapshot not found")
	}
	if snap.DeletedAt != nil || snap.Status != evaluationsnapshot.StatusActive {
		return echo.NewHTTPError(http.StatusConflict, "snapshot is archived")
	}

	selected := make([]metrics.Slug, 0, len(req.SelectedMetrics))
	for _, raw := range req.SelectedMetrics {
		slug, err := metrics.ParseSlug(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid metric slug %q", raw))
		}
		selected = append(selected, slug)
	}
	if !req.Init && req.ClientMessageID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "client_message_id is required")
	}

	result, err := s.chatEngine.Send(ctx, chat.Request{
		SnapshotID:      id,
		Message:         req.Message,
		ClientMessageID: req.ClientMessageID,
		SelectedMetrics: selected,
		IsInit:          req.Init,
	})
	if err != nil {
		if errors.Is(err, chat.ErrSnapshotUnavailable) {
			return echo.NewHTTPError(http.StatusNotFound, "snapshot not found")
		}
		return mapChatError(err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.Writer.(http.Flusher)

	if result.Cached {
		writeSSEData(w, map[string]string{"content": result.CachedContent})
		writeSSEDone(w)
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	for chunk := range result.Stream {
		switch v := chunk.(type) {
		case *llmgateway.TextChunk:
			writeSSEData(w, map[string]string{"content": v.Content})
		case *llmgateway.ErrorChunk:
			writeSSEData(w, map[string]string{"error": v.Message})
		case *llmgateway.DoneChunk:
			writeSSEDone(w)
		case *llmgateway.UsageChunk:
			// Token accounting only; not surfaced to the client stream.
		}
		if canFlush {
			flusher.Flush()
		}
	}
	return nil
}

func writeSSEData(w *echo.Response, payload map[string]string) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", body)
}

func writeSSEDone(w *echo.Response) {
	fmt.Fprint(w, "data: [DONE]\n\n")
}
