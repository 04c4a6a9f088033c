package services

import (
	"fmt"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyNotionToken       = "notion.token"
	keyGitHubToken       = "github.token"
	keyOpenAIAPIKey      = "openai.api_key"
	keyAnthropicAPIKey   = "anthropic.api_key"
	keyLLMProvider       = "ai.llm_provider"
	keyLLMModel          = "ai.llm_model"
	keyLLMBaseURL        = "ai.llm_base_url"
	keyEmbeddingProvider = "ai.embedding_provider"
	keyEmbeddingModel    = "ai.embedding_model"
	keyEmbeddingBaseURL  = "ai.embedding_base_url"
	keyChunkSize         = "agent.chunk_size"
	keyChunkOverlap      = "agent.chunk_overlap"
	keyTopK              = "agent.top_k"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
// API keys resolve per provider from the openai/anthropic config sections.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embeddingProvider := s.getProvider(keyEmbeddingProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: embeddingProvider,
			Model:    s.getString(keyEmbeddingModel, defaultEmbeddingModel(embeddingProvider)),
			BaseURL:  s.configStore.GetString(keyEmbeddingBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.apiKeyFor(embeddingProvider),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(keyLLMModel, defaultLLMModel(llmProvider)),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.apiKeyFor(llmProvider),
		},
		Agent: domain.AgentSettings{
			ChunkSize:    s.getInt(keyChunkSize, defaults.Agent.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.Agent.ChunkOverlap),
			TopK:         s.getInt(keyTopK, defaults.Agent.TopK),
		},
	}

	return settings, nil
}

// Save persists application settings.
// Source tokens are not part of AppSettings and are left untouched.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbeddingProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbeddingModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbeddingBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}

	// Save API keys under their provider sections
	if err := s.saveAPIKey(settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	if err := s.saveAPIKey(settings.LLM.Provider, settings.LLM.APIKey); err != nil {
		return err
	}

	// Save agent settings
	if err := s.configStore.Set(keyChunkSize, settings.Agent.ChunkSize); err != nil {
		return fmt.Errorf("save chunk size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Agent.ChunkOverlap); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}
	if err := s.configStore.Set(keyTopK, settings.Agent.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}

	return nil
}

// NotionToken returns the configured Notion integration token.
func (s *SettingsService) NotionToken() string {
	return s.configStore.GetString(keyNotionToken)
}

// GitHubToken returns the configured GitHub access token.
func (s *SettingsService) GitHubToken() string {
	return s.configStore.GetString(keyGitHubToken)
}

// GetPipelineConfig returns the ingestion pipeline configuration.
// The chunker window follows the configured agent settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	cfg.ProcessorConfigs["chunker"] = map[string]any{
		"chunk_size": s.getInt(keyChunkSize, domain.DefaultChunkSize),
		"overlap":    s.getInt(keyChunkOverlap, domain.DefaultChunkOverlap),
	}
	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats a missing key as the default so that explicit zero values
// (a zero chunk overlap) survive.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) apiKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.configStore.GetString(keyOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.configStore.GetString(keyAnthropicAPIKey)
	default:
		return ""
	}
}

func (s *SettingsService) saveAPIKey(provider domain.AIProvider, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	switch provider {
	case domain.AIProviderOpenAI:
		if err := s.configStore.Set(keyOpenAIAPIKey, apiKey); err != nil {
			return fmt.Errorf("save openai api_key: %w", err)
		}
	case domain.AIProviderAnthropic:
		if err := s.configStore.Set(keyAnthropicAPIKey, apiKey); err != nil {
			return fmt.Errorf("save anthropic api_key: %w", err)
		}
	}
	return nil
}

func defaultEmbeddingModel(provider domain.AIProvider) string {
	if model, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		return model
	}
	return ""
}

func defaultLLMModel(provider domain.AIProvider) string {
	if model, ok := domain.DefaultLLMModels()[provider]; ok {
		return model
	}
	return ""
}
