// Package anthropic provides a reasoning adapter using the Anthropic API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

// Ensure Reasoner implements the interfaces.
var (
	_ driven.Reasoner         = (*Reasoner)(nil)
	_ driven.PromptStoreAware = (*Reasoner)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// AnthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens bounds the answer length; the API requires it.
	defaultMaxTokens = 1024
)

// defaultAnswerPrompt is the fallback system prompt when no PromptStore
// is configured.
const defaultAnswerPrompt = `You are a helpful analyst. Use only the provided context to answer the user.
Cite the supporting source title for each claim. If the context does not contain
the answer, say so plainly instead of guessing. Return a short, direct answer.`

// Config holds configuration for the Anthropic reasoner.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the chat model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Limiter paces and retries outbound calls. Defaults to a limiter
	// with source key "anthropic".
	Limiter *ratelimit.Limiter
}

// Reasoner produces grounded answers using the Anthropic API.
type Reasoner struct {
	client      *http.Client
	limiter     *ratelimit.Limiter
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

// apiError carries the upstream HTTP status so the limiter can classify
// the failure as transient or permanent.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("anthropic error (status %d): %s", e.status, e.message)
}

func (e *apiError) HTTPStatus() int { return e.status }

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewReasoner creates a new Anthropic reasoner.
func NewReasoner(cfg Config) (*Reasoner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.Config{SourceKey: "anthropic"})
	}

	return &Reasoner{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: cfg.Limiter,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete answers a question grounded in the given context text.
// The call is paced and retried by the shared limiter.
func (r *Reasoner) Complete(ctx context.Context, question, contextText string) (string, error) {
	reqBody := messagesRequest{
		Model: r.model,
		Messages: []messagesMessage{
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nContext:\n%s", question, contextText)},
		},
		MaxTokens: defaultMaxTokens,
		System:    r.loadPrompt(driven.PromptAnswer, defaultAnswerPrompt),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var answer string
	err = r.limiter.Do(ctx, func(ctx context.Context) error {
		result, err := r.completeOnce(ctx, jsonBody)
		if err != nil {
			return err
		}
		answer = result
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// completeOnce performs a single API call. The request is rebuilt per
// attempt so the body reader is fresh on retries.
func (r *Reasoner) completeOnce(ctx context.Context, jsonBody []byte) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiError{status: resp.StatusCode, message: string(body)}
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if msgResp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}

	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("anthropic: no response content returned")
	}

	// Concatenate all text content blocks
	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return result.String(), nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (r *Reasoner) loadPrompt(name, fallback string) string {
	if r.promptStore == nil {
		return fallback
	}
	prompt, err := r.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// ModelName returns the name of the chat model being used.
func (r *Reasoner) ModelName() string {
	return r.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the reasoner uses the hardcoded default prompt.
func (r *Reasoner) SetPromptStore(store driven.PromptStore) {
	r.promptStore = store
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (r *Reasoner) Ping(ctx context.Context) error {
	return r.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/models", http.NoBody)
		if err != nil {
			return fmt.Errorf("anthropic: failed to create ping request: %w", err)
		}
		req.Header.Set("x-api-key", r.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("anthropic: ping failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
			}
			return &apiError{status: resp.StatusCode, message: string(body)}
		}
		return nil
	})
}

// Close releases resources.
func (r *Reasoner) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
