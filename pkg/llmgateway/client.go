// Package llmgateway speaks one HTTP-like chat-completions protocol to
// upstream providers, parameterized by model and base URL (spec §4.3). It
// is the single point every judge stage and the coach engine calls through.
package llmgateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mentormind/mentormind/pkg/config"
	goopenai "github.com/sashabaranov/go-openai"
)

// Request is the uniform input to both blocking and streaming calls.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	JSONMode     bool
	Purpose      config.LLMPurpose
	Timeout      time.Duration
}

// Response is the output of a blocking call.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	Elapsed          time.Duration
}

// Gateway is bound to one LLM provider configuration and speaks
// OpenAI-compatible chat completions through go-openai — the client
// construction pattern used across the example pack for any provider that
// exposes this API shape.
type Gateway struct {
	client   *goopenai.Client
	provider string
	model    string
	sink     *UsageSink
}

// New constructs a Gateway for the given provider config. apiKey is read by
// the caller from the provider's APIKeyEnv (config validation already
// confirmed it is set).
func New(providerName string, cfg *config.LLMProviderConfig, apiKey string, sink *UsageSink) *Gateway {
	clientCfg := goopenai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Gateway{
		client:   goopenai.NewClientWithConfig(clientCfg),
		provider: providerName,
		model:    cfg.Model,
		sink:     sink,
	}
}

func (g *Gateway) buildRequest(req Request, stream bool) goopenai.ChatCompletionRequest {
	ccr := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if req.MaxTokens > 0 {
		ccr.MaxTokens = req.MaxTokens
	}
	if req.JSONMode {
		ccr.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return ccr
}

// Complete performs a blocking chat-completion call.
func (g *Gateway) Complete(ctx context.Context, req Request) (Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(req, false))
	elapsed := time.Since(start)

	if err != nil {
		gwErr := classify(err)
		g.logUsage(req.Purpose, 0, 0, elapsed, gwErr)
		return Response{}, gwErr
	}
	if len(resp.Choices) == 0 {
		gwErr := &GatewayError{Class: ClassInvalidResponse, Err: fmt.Errorf("no choices returned")}
		g.logUsage(req.Purpose, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, elapsed, gwErr)
		return Response{}, gwErr
	}

	g.logUsage(req.Purpose, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, elapsed, nil)

	return Response{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Elapsed:          elapsed,
	}, nil
}

// Stream performs a streaming chat-completion call. The returned channel is
// closed when the stream completes; a terminal ErrorChunk or DoneChunk is
// always the last value sent. Streams are not resumable — callers that need
// to resume re-invoke Stream with the same request.
func (g *Gateway) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	streamReq := g.buildRequest(req, true)
	upstream, err := g.client.CreateChatCompletionStream(ctx, streamReq)
	if err != nil {
		gwErr := classify(err)
		g.logUsage(req.Purpose, 0, 0, 0, gwErr)
		return nil, gwErr
	}

	out := make(chan Chunk, 8)
	go g.pump(ctx, upstream, req.Purpose, out)
	return out, nil
}

func (g *Gateway) pump(_ context.Context, upstream *goopenai.ChatCompletionStream, purpose config.LLMPurpose, out chan<- Chunk) {
	defer close(out)
	defer upstream.Close()

	start := time.Now()
	var promptTokens, completionTokens int

	for {
		resp, err := upstream.Recv()
		if err != nil {
			elapsed := time.Since(start)
			if errors.Is(err, io.EOF) {
				out <- &UsageChunk{PromptTokens: promptTokens, CompletionTokens: completionTokens}
				g.logUsage(purpose, promptTokens, completionTokens, elapsed, nil)
				out <- &DoneChunk{}
				return
			}
			gwErr := classify(err)
			g.logUsage(purpose, promptTokens, completionTokens, elapsed, gwErr)
			out <- &ErrorChunk{Class: gwErr.Class, Message: gwErr.Error()}
			return
		}

		if resp.Usage != nil {
			promptTokens = resp.Usage.PromptTokens
			completionTokens = resp.Usage.CompletionTokens
		}
		if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
			out <- &TextChunk{Content: resp.Choices[0].Delta.Content}
		}
	}
}

func (g *Gateway) logUsage(purpose config.LLMPurpose, promptTokens, completionTokens int, elapsed time.Duration, gwErr *GatewayError) {
	if g.sink == nil {
		return
	}
	rec := UsageRecord{
		Timestamp:        time.Now().UTC(),
		Provider:         g.provider,
		Model:            g.model,
		Purpose:          purpose,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Duration:         elapsed,
		Success:          gwErr == nil,
	}
	if gwErr != nil {
		rec.Error = gwErr.Error()
	}
	_ = g.sink.Append(rec) // usage logging is best-effort, never blocks the caller
}
