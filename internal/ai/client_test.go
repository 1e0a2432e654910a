package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easylesson/config"
	"easylesson/internal/logger"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(&config.LLMConfig{
		BaseURL:    srv.URL + "/",
		APIKey:     "test-key",
		Model:      "test-model",
		MaxTokens:  256,
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		Referer:    "http://localhost",
		AppTitle:   "EasyStory",
	}, logger.Nop())
	c.backoff = time.Millisecond
	return c
}

func TestCompleteSendsJSONModeAndHeaders(t *testing.T) {
	var got struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "EasyStory", r.Header.Get("X-Title"))
		assert.Equal(t, "http://localhost", r.Header.Get("HTTP-Referer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(`{"title":"T"}`))
	})

	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"T"}`, out)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestCompleteRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream busy","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(completionBody(`{"ok":true}`))
	})

	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteEmptyChoices(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	})

	_, err := c.Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCompleteNotConfigured(t *testing.T) {
	c := NewClient(&config.LLMConfig{BaseURL: "http://127.0.0.1:1"}, logger.Nop())
	assert.False(t, c.Configured())
	_, err := c.Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSelectsProvider(t *testing.T) {
	comp, ok := New(&config.LLMConfig{Provider: "gemini", GeminiAPIKey: "k"}, logger.Nop())
	assert.True(t, ok)
	assert.IsType(t, &GeminiClient{}, comp)

	comp, ok = New(&config.LLMConfig{Provider: "whatever"}, logger.Nop())
	assert.False(t, ok)
	assert.IsType(t, &Client{}, comp)

	_, err := NewGeminiClient(&config.LLMConfig{}, logger.Nop()).Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
