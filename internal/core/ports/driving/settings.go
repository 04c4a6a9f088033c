package driving

import "github.com/custodia-labs/corra/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// NotionToken returns the configured Notion integration token.
	NotionToken() string

	// GitHubToken returns the configured GitHub access token.
	GitHubToken() string

	// GetPipelineConfig returns the ingestion pipeline configuration.
	GetPipelineConfig() domain.PipelineConfig
}
