package llmgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mentormind/mentormind/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T) *UsageSink {
	t.Helper()
	sink, err := NewUsageSink(filepath.Join(t.TempDir(), "usage.jsonl"))
	require.NoError(t, err)
	return sink
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "hello"}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	}))
	defer server.Close()

	gw := New("openai", &config.LLMProviderConfig{Model: "gpt-4", BaseURL: server.URL}, "test-key", newTestSink(t))

	resp, err := gw.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "hi", Purpose: config.PurposeCoachChat})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 10, resp.PromptTokens)
	assert.Equal(t, 2, resp.CompletionTokens)
}

func TestCompleteClassifiesRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer server.Close()

	gw := New("openai", &config.LLMProviderConfig{Model: "gpt-4", BaseURL: server.URL}, "test-key", newTestSink(t))

	_, err := gw.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "hi", Purpose: config.PurposeJudgeStage1})
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ClassRateLimited, gwErr.Class)
	assert.True(t, gwErr.Retryable())
}

func TestCompleteClassifiesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream unavailable", "type": "server_error"},
		})
	}))
	defer server.Close()

	gw := New("openai", &config.LLMProviderConfig{Model: "gpt-4", BaseURL: server.URL}, "test-key", newTestSink(t))

	_, err := gw.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "hi", Purpose: config.PurposeJudgeStage2})
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ClassHTTP5xx, gwErr.Class)
	assert.True(t, gwErr.Retryable())
}

func TestCompleteClassifiesBadRequestAsNonRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid request", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	gw := New("openai", &config.LLMProviderConfig{Model: "gpt-4", BaseURL: server.URL}, "test-key", newTestSink(t))

	_, err := gw.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "hi", Purpose: config.PurposeJudgeStage1})
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ClassHTTP4xx, gwErr.Class)
	assert.False(t, gwErr.Retryable())
}

func TestUsageSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.jsonl")
	sink, err := NewUsageSink(path)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "ok"}}},
			"usage":   map[string]any{"prompt_tokens": 1, "completion_tokens": 1},
		})
	}))
	defer server.Close()

	gw := New("openai", &config.LLMProviderConfig{Model: "gpt-4", BaseURL: server.URL}, "test-key", sink)
	_, err = gw.Complete(context.Background(), Request{SystemPrompt: "s", UserPrompt: "u", Purpose: config.PurposeEmbedding})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.TrimSpace(string(data))
	assert.Equal(t, 1, strings.Count(lines, "\n")+1)
	assert.Contains(t, lines, `"purpose":"embedding"`)
}
