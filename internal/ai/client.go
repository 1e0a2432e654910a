package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"easylesson/config"
	"easylesson/internal/logger"
)

var (
	// ErrNotConfigured is returned when no API key is available for the provider.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrEmptyCompletion is returned when the model produced no content.
	ErrEmptyCompletion = errors.New("llm returned no content")
	// ErrUpstream wraps transport and API failures of the provider.
	ErrUpstream = errors.New("llm request failed")
)

// Completer produces one JSON document for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client talks to an OpenAI-compatible chat completions API (OpenRouter by default).
type Client struct {
	client     *openai.Client
	config     *config.LLMConfig
	maxTokens  int
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

// NewClient creates a Client. A missing API key yields a client whose calls fail
// with ErrNotConfigured, so the server can still start.
func NewClient(cfg *config.LLMConfig, log *logger.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientConfig.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.AppTitle,
			},
		},
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &Client{
		client:     openai.NewClientWithConfig(clientConfig),
		config:     cfg,
		maxTokens:  cfg.MaxTokens,
		maxRetries: maxRetries,
		backoff:    2 * time.Second,
		log:        log.With("component", "ai", "provider", "openai"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Complete sends a JSON-mode chat completion request.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		MaxTokens: c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	return c.generateText(ctx, req)
}

// generateText sends the request, retrying failed or empty responses with a linear backoff.
func (c *Client) generateText(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	c.log.Debug("sending completion request", "model", req.Model)

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			case <-time.After(time.Duration(i) * c.backoff):
			}
		}

		text, err := c.once(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.log.Warn("completion attempt failed", "attempt", i+1, "max", c.maxRetries, "error", err)
	}
	return "", lastErr
}

func (c *Client) once(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(timeoutCtx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	c.log.Info("completion succeeded", "model", req.Model, "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// headerTransport adds fixed headers (OpenRouter attribution) to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
