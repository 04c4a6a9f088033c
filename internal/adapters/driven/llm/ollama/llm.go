// Package ollama provides a reasoning adapter using Ollama.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// defaultAnswerPrompt is the fallback system prompt when no PromptStore
// is configured.
const defaultAnswerPrompt = `You are a helpful analyst. Use only the provided context to answer the user.
Cite the supporting source title for each claim. If the context does not contain
the answer, say so plainly instead of guessing. Return a short, direct answer.`

// Config holds configuration for the Ollama reasoner.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Limiter paces and retries outbound calls. Defaults to a limiter
	// with source key "ollama".
	Limiter *ratelimit.Limiter
}

// Reasoner produces grounded answers using a local Ollama server.
type Reasoner struct {
	client      *http.Client
	limiter     *ratelimit.Limiter
	baseURL     string
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
	return fmt.Sprintf("ollama error (status %d): %s", e.status, e.message)
}

func (e *apiError) HTTPStatus() int { return e.status }

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewReasoner creates a new Ollama reasoner.
func NewReasoner(cfg Config) *Reasoner {
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
		cfg.Limiter = ratelimit.New(ratelimit.Config{SourceKey: "ollama"})
	}

	return &Reasoner{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: cfg.Limiter,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Complete answers a question grounded in the given context text.
// The call is paced and retried by the shared limiter.
func (r *Reasoner) Complete(ctx context.Context, question, contextText string) (string, error) {
	reqBody := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: r.loadPrompt(driven.PromptAnswer, defaultAnswerPrompt)},
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nContext:\n%s", question, contextText)},
		},
		Stream: false,
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
		r.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &apiError{status: resp.StatusCode, message: "failed to read response"}
		}
		return "", &apiError{status: resp.StatusCode, message: string(body)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return chatResp.Message.Content, nil
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

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (r *Reasoner) Ping(ctx context.Context) error {
	return r.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/tags", http.NoBody)
		if err != nil {
			return fmt.Errorf("ollama: failed to create ping request: %w", err)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("ollama: ping failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
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
