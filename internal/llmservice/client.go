// Package llmservice provides the language model capability used to turn
// grounded prompts into answers.
package llmservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator produces a completion for an assembled prompt. Implementations
// are external capabilities; errors and timeouts surface to the caller
// unretried.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint
// (Groq serves the same wire format) through langchaingo.
type OpenAIGenerator struct {
	model       llms.Model
	timeout     time.Duration
	temperature float64
}

// NewOpenAIGenerator builds a generator against an OpenAI-compatible API.
// A zero timeout disables the per-call deadline.
func NewOpenAIGenerator(baseURL, apiKey, model string, timeout time.Duration, temperature float64) (*OpenAIGenerator, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("base_url", baseURL).Str("model", model).Msg("generator initialized")
	return &OpenAIGenerator{model: llm, timeout: timeout, temperature: temperature}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := g.model.GenerateContent(ctx, messages, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
