// Package chat implements the coach chat engine (spec §4.9): a single
// learner's streaming conversation over one evaluation snapshot, with
// strict idempotency, an atomic turn-limit counter, resumable streams, a
// bonus init greeting, and a bounded conversation window.
package chat

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/ent/chatmessage"
	"github.com/mentormind/mentormind/ent/evaluationsnapshot"
	"github.com/mentormind/mentormind/ent/predicate"
	"github.com/mentormind/mentormind/pkg/config"
	"github.com/mentormind/mentormind/pkg/idgen"
	"github.com/mentormind/mentormind/pkg/llmgateway"
	"github.com/mentormind/mentormind/pkg/metrics"
)

// defaultHistoryWindowMessages is used when the caller leaves
// historyWindow <= 0 (spec §4.9's documented default of six messages).
const defaultHistoryWindowMessages = 6

// Engine drives chat turns for one snapshot at a time; it holds no
// per-request state beyond the ent client and gateway.
type Engine struct {
	client        *ent.Client
	gateway       *llmgateway.Gateway
	historyWindow int
}

// NewEngine wires the chat engine to the shared ent client and LLM gateway.
// historyWindow is the configured rolling-window size
// (cfg.Defaults.ChatHistoryWindow); a value <= 0 falls back to
// defaultHistoryWindowMessages.
func NewEngine(client *ent.Client, gateway *llmgateway.Gateway, historyWindow int) *Engine {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindowMessages
	}
	return &Engine{client: client, gateway: gateway, historyWindow: historyWindow}
}

// Request is one chat turn's input (spec §4.9 "Inputs per request").
type Request struct {
	SnapshotID      string
	Message         string
	ClientMessageID string
	SelectedMetrics []metrics.Slug
	IsInit          bool
}

// Result is what Send returns: either a cached assistant reply (the
// idempotency contract) or a live stream the caller drains token by token.
type Result struct {
	Cached        bool
	CachedContent string
	Stream        <-chan llmgateway.Chunk
}

// Send validates preconditions in the order spec §4.9 requires, then either
// returns a cached reply or starts streaming a new one. Any precondition
// failure aborts before LLM contact.
func (e *Engine) Send(ctx context.Context, req Request) (*Result, error) {
	snap, err := e.client.EvaluationSnapshot.Query().
		Where(evaluationsnapshot.IDEQ(req.SnapshotID), evaluationsnapshot.DeletedAtIsNil()).
		Only(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	if snap.Status != evaluationsnapshot.StatusActive {
		return nil, fmt.Errorf("%w: status=%s", ErrSnapshotUnavailable, snap.Status)
	}

	if req.IsInit {
		return e.sendInit(ctx, snap, req)
	}
	return e.sendTurn(ctx, snap, req)
}

func (e *Engine) sendInit(ctx context.Context, snap *ent.EvaluationSnapshot, req Request) (*Result, error) {
	expected := "init_" + snap.ID
	if req.ClientMessageID != expected {
		return nil, fmt.Errorf("%w: init client_message_id must equal %q", ErrValidation, expected)
	}

	existing, err := e.client.ChatMessage.Query().
		Where(
			chatmessage.SnapshotIDEQ(snap.ID),
			chatmessage.ClientMessageIDEQ(req.ClientMessageID),
			chatmessage.RoleEQ(chatmessage.RoleAssistant),
		).
		Only(ctx)
	if err == nil {
		if existing.IsComplete {
			return &Result{Cached: true, CachedContent: existing.Content}, nil
		}
		return e.resumeAssistantRow(ctx, existing, BuildInitPrompt(BuildSnapshotContext(snap, req.SelectedMetrics)))
	}
	if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("chat: query init row: %w", err)
	}

	row, err := e.client.ChatMessage.Create().
		SetID(idgen.New("msg")).
		SetSnapshotID(snap.ID).
		SetClientMessageID(req.ClientMessageID).
		SetRole(chatmessage.RoleAssistant).
		SetContent("").
		SetIsComplete(false).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: create init row: %w", err)
	}
	return e.startStream(ctx, row, BuildInitPrompt(BuildSnapshotContext(snap, req.SelectedMetrics)))
}

func (e *Engine) sendTurn(ctx context.Context, snap *ent.EvaluationSnapshot, req Request) (*Result, error) {
	if len(req.SelectedMetrics) == 0 || len(req.SelectedMetrics) > 3 {
		return nil, fmt.Errorf("%w: selected_metrics must have 1..3 entries", ErrValidation)
	}

	// Precondition 2: duplicate check. A completed pair short-circuits
	// without touching the turn counter or the LLM.
	userRow, err := e.client.ChatMessage.Query().
		Where(
			chatmessage.SnapshotIDEQ(snap.ID),
			chatmessage.ClientMessageIDEQ(req.ClientMessageID),
			chatmessage.RoleEQ(chatmessage.RoleUser),
		).
		Only(ctx)
	if err == nil {
		return e.resumePairedAssistant(ctx, snap.ID, userRow.ClientMessageID, storedSelectedMetrics(userRow, req.SelectedMetrics))
	}
	if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("chat: duplicate check: %w", err)
	}

	// Precondition 3: atomic turn increment.
	n, err := e.client.EvaluationSnapshot.Update().
		Where(
			evaluationsnapshot.IDEQ(snap.ID),
			predicate.EvaluationSnapshot(func(s *sql.Selector) {
				s.Where(sql.ColumnsLT(s.C(evaluationsnapshot.FieldChatTurnCount), s.C(evaluationsnapshot.FieldMaxChatTurns)))
			}),
		).
		AddChatTurnCount(1).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: increment turn count: %w", err)
	}
	if n == 0 {
		return nil, ErrTurnLimitReached
	}

	var selectedStrs []string
	for _, s := range req.SelectedMetrics {
		selectedStrs = append(selectedStrs, string(s))
	}

	// Persist the user row.
	if _, err := e.client.ChatMessage.Create().
		SetID(idgen.New("msg")).
		SetSnapshotID(snap.ID).
		SetClientMessageID(req.ClientMessageID).
		SetRole(chatmessage.RoleUser).
		SetContent(req.Message).
		SetIsComplete(true).
		SetSelectedMetrics(selectedStrs).
		Save(ctx); err != nil {
		return nil, fmt.Errorf("chat: persist user row: %w", err)
	}

	// Upsert the assistant row, empty and incomplete.
	assistantRow, err := e.client.ChatMessage.Create().
		SetID(idgen.New("msg")).
		SetSnapshotID(snap.ID).
		SetClientMessageID(req.ClientMessageID).
		SetRole(chatmessage.RoleAssistant).
		SetContent("").
		SetIsComplete(false).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: create assistant row: %w", err)
	}

	window, err := e.loadWindow(ctx, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("chat: load window: %w", err)
	}
	prompt := BuildWindowPrompt(BuildSnapshotContext(snap, req.SelectedMetrics), window, req.Message)
	return e.startStream(ctx, assistantRow, prompt)
}

// resumePairedAssistant implements the duplicate-check idempotency
// contract: return the paired assistant content without calling the LLM,
// or resume an in-flight stream if the previous attempt never completed.
func (e *Engine) resumePairedAssistant(ctx context.Context, snapshotID, clientMessageID string, selectedMetrics []metrics.Slug) (*Result, error) {
	assistantRow, err := e.client.ChatMessage.Query().
		Where(
			chatmessage.SnapshotIDEQ(snapshotID),
			chatmessage.ClientMessageIDEQ(clientMessageID),
			chatmessage.RoleEQ(chatmessage.RoleAssistant),
		).
		Only(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: load paired assistant row: %w", err)
	}
	if assistantRow.IsComplete {
		return &Result{Cached: true, CachedContent: assistantRow.Content}, nil
	}

	snap, err := e.client.EvaluationSnapshot.Get(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("chat: reload snapshot: %w", err)
	}
	window, err := e.loadWindow(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("chat: load window: %w", err)
	}

	userRow, err := e.client.ChatMessage.Query().
		Where(chatmessage.SnapshotIDEQ(snapshotID), chatmessage.ClientMessageIDEQ(clientMessageID), chatmessage.RoleEQ(chatmessage.RoleUser)).
		Only(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: reload user row: %w", err)
	}
	prompt := BuildWindowPrompt(BuildSnapshotContext(snap, selectedMetrics), window, userRow.Content)
	return e.resumeAssistantRow(ctx, assistantRow, prompt)
}

// resumeAssistantRow implements update-in-place (spec §4.9 "Resume /
// update-in-place"): reset content, keep is_complete=false and the row id,
// then regenerate via the LLM. Never DELETE+INSERT.
func (e *Engine) resumeAssistantRow(ctx context.Context, row *ent.ChatMessage, prompt string) (*Result, error) {
	if err := e.client.ChatMessage.UpdateOneID(row.ID).SetContent("").Exec(ctx); err != nil {
		return nil, fmt.Errorf("chat: reset assistant row for resume: %w", err)
	}
	return e.startStream(ctx, row, prompt)
}

// startStream invokes the gateway in streaming mode and wraps the upstream
// channel in a forwarding goroutine that accumulates the text and finalizes
// the assistant row once the stream ends. Caller disconnect (ctx cancel)
// simply stops emission and leaves is_complete=false for the next retry.
func (e *Engine) startStream(ctx context.Context, row *ent.ChatMessage, prompt string) (*Result, error) {
	upstream, err := e.gateway.Stream(ctx, llmgateway.Request{
		SystemPrompt: coachSystemPrompt,
		UserPrompt:   prompt,
		Purpose:      config.PurposeCoachChat,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: start stream: %w", err)
	}

	out := make(chan llmgateway.Chunk, 8)
	go e.pumpAndFinalize(row.ID, upstream, out)
	return &Result{Stream: out}, nil
}

func (e *Engine) pumpAndFinalize(rowID string, upstream <-chan llmgateway.Chunk, out chan<- llmgateway.Chunk) {
	defer close(out)

	var accumulated strings.Builder
	var tokenCount int
	for chunk := range upstream {
		out <- chunk
		if text, ok := chunk.(*llmgateway.TextChunk); ok {
			accumulated.WriteString(text.Content)
		}
		if usage, ok := chunk.(*llmgateway.UsageChunk); ok {
			tokenCount = usage.PromptTokens + usage.CompletionTokens
		}
		if _, ok := chunk.(*llmgateway.DoneChunk); ok {
			ctx := context.Background()
			_ = e.client.ChatMessage.UpdateOneID(rowID).
				SetContent(accumulated.String()).
				SetIsComplete(true).
				SetTokenCount(tokenCount).
				Exec(ctx)
		}
		// An ErrorChunk leaves is_complete=false; the row is resumable on retry.
	}
}

// loadWindow returns the rolling window of the last e.historyWindow
// completed messages, oldest first, excluding any incomplete assistant row
// (spec §4.9 "Windowing").
func (e *Engine) loadWindow(ctx context.Context, snapshotID string) ([]WindowMessage, error) {
	rows, err := e.client.ChatMessage.Query().
		Where(chatmessage.SnapshotIDEQ(snapshotID), chatmessage.IsCompleteEQ(true)).
		Order(ent.Desc(chatmessage.FieldCreatedAt)).
		Limit(e.historyWindow).
		All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WindowMessage, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = WindowMessage{Role: string(row.Role), Content: row.Content}
	}
	return out, nil
}

// storedSelectedMetrics prefers the metrics recorded on the original user
// row (selected_metrics is fixed for the session per spec §3) and falls
// back to the retry request's own value only if the stored row has none.
func storedSelectedMetrics(userRow *ent.ChatMessage, fromRequest []metrics.Slug) []metrics.Slug {
	if userRow.SelectedMetrics == nil {
		return fromRequest
	}
	out := make([]metrics.Slug, 0, len(userRow.SelectedMetrics))
	for _, raw := range userRow.SelectedMetrics {
		if slug, err := metrics.ParseSlug(raw); err == nil {
			out = append(out, slug)
		}
	}
	return out
}
