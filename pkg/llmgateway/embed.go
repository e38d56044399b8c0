package llmgateway

import (
	"context"
	"fmt"
	"time"

	"github.com/mentormind/mentormind/pkg/config"
	goopenai "github.com/sashabaranov/go-openai"
)

// EmbeddingGateway is bound to the embedding_model provider (spec §6) and
// exposes the one call vector memory needs: turn text into a vector. Kept
// separate from Gateway because go-openai models embeddings and chat
// completions as distinct client calls against distinct model identifiers.
type EmbeddingGateway struct {
	client   *goopenai.Client
	provider string
	model    string
	sink     *UsageSink
}

// NewEmbeddingGateway mirrors New's construction shape for the embedding
// provider.
func NewEmbeddingGateway(providerName string, cfg *config.LLMProviderConfig, apiKey string, sink *UsageSink) *EmbeddingGateway {
	clientCfg := goopenai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &EmbeddingGateway{
		client:   goopenai.NewClientWithConfig(clientCfg),
		provider: providerName,
		model:    cfg.Model,
		sink:     sink,
	}
}

// Embed returns the embedding vector for text, logging a usage record under
// config.PurposeEmbedding the same way Complete does for chat calls.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	resp, err := g.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(g.model),
	})
	elapsed := time.Since(start)

	if err != nil {
		gwErr := classify(err)
		g.logUsage(elapsed, 0, gwErr)
		return nil, gwErr
	}
	if len(resp.Data) == 0 {
		gwErr := &GatewayError{Class: ClassInvalidResponse, Err: fmt.Errorf("no embedding data returned")}
		g.logUsage(elapsed, resp.Usage.PromptTokens, gwErr)
		return nil, gwErr
	}

	g.logUsage(elapsed, resp.Usage.PromptTokens, nil)
	return resp.Data[0].Embedding, nil
}

func (g *EmbeddingGateway) logUsage(elapsed time.Duration, promptTokens int, gwErr *GatewayError) {
	if g.sink == nil {
		return
	}
	rec := UsageRecord{
		Timestamp:    time.Now().UTC(),
		Provider:     g.provider,
		Model:        g.model,
		Purpose:      config.PurposeEmbedding,
		PromptTokens: promptTokens,
		Duration:     elapsed,
		Success:      gwErr == nil,
	}
	if gwErr != nil {
		rec.Error = gwErr.Error()
	}
	_ = g.sink.Append(rec)
}
