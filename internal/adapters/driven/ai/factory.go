// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	ollamaembed "github.com/custodia-labs/corra/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/corra/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/corra/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/corra/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/corra/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured. The limiter is shared with any
// other adapter calling the same provider; pass nil to let the adapter create
// its own.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, limiter), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, limiter)

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateReasoner creates the appropriate reasoner based on settings.
// Returns nil if the provider is not configured.
func CreateReasoner(settings *domain.LLMSettings, limiter *ratelimit.Limiter) (driven.Reasoner, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaReasoner(settings, limiter), nil

	case domain.AIProviderOpenAI:
		return createOpenAIReasoner(settings, limiter)

	case domain.AIProviderAnthropic:
		return createAnthropicReasoner(settings, limiter)

	default:
		return nil, fmt.Errorf("unsupported reasoning provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
		Limiter:    limiter,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings, limiter *ratelimit.Limiter) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
		Limiter:    limiter,
	})
}

// createOllamaReasoner creates an Ollama reasoner.
func createOllamaReasoner(settings *domain.LLMSettings, limiter *ratelimit.Limiter) driven.Reasoner {
	return ollamallm.NewReasoner(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Limiter: limiter,
	})
}

// createOpenAIReasoner creates an OpenAI reasoner.
func createOpenAIReasoner(settings *domain.LLMSettings, limiter *ratelimit.Limiter) (driven.Reasoner, error) {
	return openaillm.NewReasoner(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Limiter: limiter,
	})
}

// createAnthropicReasoner creates an Anthropic reasoner.
func createAnthropicReasoner(settings *domain.LLMSettings, limiter *ratelimit.Limiter) (driven.Reasoner, error) {
	return anthropicllm.NewReasoner(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Limiter: limiter,
	})
}
