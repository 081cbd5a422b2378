// Package embedding provides the text embedding capability consumed by the
// vector index and the retriever.
package embedding

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder maps text to a fixed-dimension vector. Implementations are
// external capabilities and may fail independently; all chunks of one
// index and every query against it must go through the same Embedder
// configuration so dimensions line up.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint through
// langchaingo. A zero timeout disables the per-call deadline.
type OpenAIEmbedder struct {
	impl    *embeddings.EmbedderImpl
	timeout time.Duration
}

// NewOpenAIEmbedder builds an embedder against an OpenAI-compatible API.
func NewOpenAIEmbedder(baseURL, apiKey, model string, timeout time.Duration) (*OpenAIEmbedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("base_url", baseURL).Str("model", model).Msg("embedder initialized")
	return &OpenAIEmbedder{impl: impl, timeout: timeout}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.impl.EmbedQuery(ctx, text)
}
