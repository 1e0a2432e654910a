package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"easylesson/config"
	"easylesson/internal/logger"
)

// GeminiClient completes prompts with Google Gemini in JSON mode.
type GeminiClient struct {
	apiKey string
	model  string
	log    *logger.Logger
}

// NewGeminiClient creates a Gemini completer. A client is opened per call.
func NewGeminiClient(cfg *config.LLMConfig, log *logger.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.GeminiModel,
		log:    log.With("component", "ai", "provider", "gemini"),
	}
}

// Configured reports whether an API key is present.
func (g *GeminiClient) Configured() bool {
	return g.apiKey != ""
}

func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("%w: create gemini client: %v", ErrUpstream, err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyCompletion
	}
	g.log.Debug("gemini completion succeeded", "model", g.model)
	return sb.String(), nil
}

// New selects the completer named by cfg.Provider. Unknown providers fall back to openai.
func New(cfg *config.LLMConfig, log *logger.Logger) (Completer, bool) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		g := NewGeminiClient(cfg, log)
		return g, g.Configured()
	default:
		c := NewClient(cfg, log)
		return c, c.Configured()
	}
}
