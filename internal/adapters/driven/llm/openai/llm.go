// Package openai provides a reasoning adapter using the OpenAI chat API.
package openai

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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// defaultAnswerPrompt is the fallback system prompt when no PromptStore
// is configured.
const defaultAnswerPrompt = `You are a helpful analyst. Use only the provided context to answer the user.
Cite the supporting source title for each claim. If the context does not contain
the answer, say so plainly instead of guessing. Return a short, direct answer.`

// Config holds configuration for the OpenAI reasoner.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Limiter paces and retries outbound calls. All adapters sharing the
	// OpenAI key should share this instance. Defaults to a limiter with
	// source key "openai".
	Limiter *ratelimit.Limiter
}

// Reasoner produces grounded answers using the OpenAI chat API.
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
	return fmt.Sprintf("openai error (status %d): %s", e.status, e.message)
}

func (e *apiError) HTTPStatus() int { return e.status }

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model    string              `json:"model"`
	Messages []chatCompletionMsg `json:"messages"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewReasoner creates a new OpenAI reasoner.
func NewReasoner(cfg Config) (*Reasoner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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
		cfg.Limiter = ratelimit.New(ratelimit.Config{SourceKey: "openai"})
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
	reqBody := chatCompletionRequest{
		Model: r.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: r.loadPrompt(driven.PromptAnswer, defaultAnswerPrompt)},
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nContext:\n%s", question, contextText)},
		},
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
		r.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

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

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
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

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (r *Reasoner) Ping(ctx context.Context) error {
	return r.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/models", http.NoBody)
		if err != nil {
			return fmt.Errorf("openai: failed to create ping request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+r.apiKey)

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("openai: ping failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
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
