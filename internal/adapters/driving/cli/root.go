// Package cli wires the application together and exposes the corra
// command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corra/internal/adapters/driven/ai"
	fileconfig "github.com/custodia-labs/corra/internal/adapters/driven/config/file"
	"github.com/custodia-labs/corra/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corra/internal/connectors/github"
	"github.com/custodia-labs/corra/internal/connectors/notion"
	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/core/ports/driving"
	"github.com/custodia-labs/corra/internal/core/services"
	"github.com/custodia-labs/corra/internal/logger"
	"github.com/custodia-labs/corra/internal/postprocessors"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

// Services shared by the commands. Populated by initServices.
var (
	agentService    driving.Agent
	toolService     driving.Tools
	settingsService driving.SettingsService
)

// closers release provider clients when the process exits.
var closers []func() error

var rootCmd = &cobra.Command{
	Use:   "corra",
	Short: "Retrieval agent over Notion docs and GitHub code",
	Long: `corra answers natural-language questions by retrieving from two
knowledge sources: Notion (documentation) and GitHub (code).

Ingested documents are chunked, embedded and held in an in-memory
vector index; answers cite the documents they are grounded in.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	// Credentials may come from a .env in the working directory.
	_ = godotenv.Load()

	defer closeServices()
	return rootCmd.Execute()
}

// initServices builds the adapters and services behind the commands.
// Safe to call more than once; commands that need services call it first.
func initServices() error {
	if toolService != nil {
		return nil
	}

	configStore, err := fileconfig.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	settingsService = services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	applyEnvOverrides(settings)

	limiters := newLimiterSet(configStore)

	accessors, err := buildAccessors(limiters)
	if err != nil {
		return err
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding, limiters.For(settings.Embedding.Provider.String()))
	if err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	if embedder != nil {
		closers = append(closers, embedder.Close)
	} else {
		logger.Warn("Embedding provider not configured; ingestion and query tools disabled")
	}

	reasoner, err := ai.CreateReasoner(&settings.LLM, limiters.For(settings.LLM.Provider.String()))
	if err != nil {
		return fmt.Errorf("reasoner: %w", err)
	}
	if reasoner != nil {
		closers = append(closers, reasoner.Close)
		injectPromptStore(reasoner)
	} else {
		logger.Warn("Reasoning provider not configured; query tool disabled")
	}

	pipeline, err := buildPipeline(settingsService.GetPipelineConfig())
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	vectorIndex := memory.NewVectorIndex()
	docStore := memory.NewDocumentStore()
	closers = append(closers, vectorIndex.Close)

	agentService = services.NewAgentService(
		accessors,
		pipeline,
		embedder,
		reasoner,
		vectorIndex,
		docStore,
		settings.Agent.TopK,
	)
	toolService = services.NewToolService(agentService, accessors)

	return nil
}

// applyEnvOverrides lets environment credentials take precedence over the
// config file.
func applyEnvOverrides(settings *domain.AppSettings) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		if settings.LLM.Provider == domain.AIProviderAnthropic {
			settings.LLM.APIKey = key
		}
	}
}

// buildAccessors creates one source accessor per configured token.
// A source without a token is skipped, not an error; its tools report
// themselves as not configured.
func buildAccessors(limiters *limiterSet) ([]driven.SourceAccessor, error) {
	var accessors []driven.SourceAccessor

	notionToken := os.Getenv("NOTION_TOKEN")
	if notionToken == "" {
		notionToken = settingsService.NotionToken()
	}
	if notionToken != "" {
		accessor, err := notion.New(notion.Config{
			Token:   notionToken,
			Limiter: limiters.For("notion"),
		})
		if err != nil {
			return nil, fmt.Errorf("notion accessor: %w", err)
		}
		accessors = append(accessors, accessor)
	} else {
		logger.Warn("Notion token not configured; notion tools disabled")
	}

	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" {
		githubToken = settingsService.GitHubToken()
	}
	if githubToken != "" {
		accessor, err := github.New(github.Config{
			Token:   githubToken,
			Limiter: limiters.For("github"),
		})
		if err != nil {
			return nil, fmt.Errorf("github accessor: %w", err)
		}
		accessors = append(accessors, accessor)
	} else {
		logger.Warn("GitHub token not configured; github tools disabled")
	}

	return accessors, nil
}

// injectPromptStore gives prompt-aware reasoners their user-editable
// prompt files. Missing prompt files are not fatal; the adapter falls
// back to its embedded defaults.
func injectPromptStore(reasoner driven.Reasoner) {
	aware, ok := reasoner.(driven.PromptStoreAware)
	if !ok {
		return
	}
	promptStore, err := fileconfig.NewPromptStore("")
	if err != nil {
		logger.Warn("Prompt store unavailable: %v", err)
		return
	}
	aware.SetPromptStore(promptStore)
}

// buildPipeline assembles the post-processor chain from configuration.
func buildPipeline(cfg domain.PipelineConfig) (driven.PostProcessorPipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	pipeline := postprocessors.NewPipeline()
	for _, name := range cfg.Processors {
		processor, err := registry.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}

// limiterSet hands out one shared limiter per source key so every outbound
// call to the same upstream drains the same bucket.
type limiterSet struct {
	configStore driven.ConfigStore
	limiters    map[string]*ratelimit.Limiter
}

func newLimiterSet(configStore driven.ConfigStore) *limiterSet {
	return &limiterSet{
		configStore: configStore,
		limiters:    make(map[string]*ratelimit.Limiter),
	}
}

// For returns the limiter for a source key, creating it from the
// ratelimit.<key>.* config section on first use. The timeout key is in
// seconds; unset falls back to the package default so every attempt has
// a deadline in production.
func (l *limiterSet) For(key string) *ratelimit.Limiter {
	if limiter, ok := l.limiters[key]; ok {
		return limiter
	}

	prefix := "ratelimit." + key + "."
	timeout := time.Duration(l.configStore.GetFloat(prefix+"timeout") * float64(time.Second))
	if timeout <= 0 {
		timeout = ratelimit.DefaultAttemptTimeout
	}
	limiter := ratelimit.New(ratelimit.Config{
		SourceKey:   key,
		Rate:        l.configStore.GetFloat(prefix + "rate"),
		Burst:       l.configStore.GetInt(prefix + "burst"),
		MaxAttempts: l.configStore.GetInt(prefix + "max_attempts"),
		Timeout:     timeout,
	})
	l.limiters[key] = limiter
	return limiter
}

func closeServices() {
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("Close: %v", err)
		}
	}
	closers = nil
}
