package llm

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

	"meetpilot/internal/config"
	"meetpilot/internal/logging"
)

func testLLMConfig(baseURL string) config.LLMConfig {
	cfg := config.DefaultLLMConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.RateLimitDelayMs = 0
	return cfg
}

func anthropicBody(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"model":   "claude-test",
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return body
}

func TestAnthropicClient_Generate(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(anthropicBody("  hello from the model  "))
	}))
	defer srv.Close()

	client := NewAnthropicClient(testLLMConfig(srv.URL), logging.Nop())
	resp, err := client.Generate(context.Background(), Request{
		System:      "you are a meeting co-pilot",
		Prompt:      "analyze this",
		Model:       "claude-test",
		Temperature: 0.2,
		MaxTokens:   512,
	})
	require.NoError(t, err)

	assert.Equal(t, "hello from the model", resp.Text, "whitespace trimmed")
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, "you are a meeting co-pilot", gotReq.System)
	assert.Equal(t, 512, gotReq.MaxTokens)
}

func TestAnthropicClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(anthropicBody("recovered"))
	}))
	defer srv.Close()

	client := NewAnthropicClient(testLLMConfig(srv.URL), logging.Nop())
	resp, err := client.Generate(context.Background(), Request{Prompt: "p", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicClient_NonRetryableError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(testLLMConfig(srv.URL), logging.Nop())
	_, err := client.Generate(context.Background(), Request{Prompt: "p", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load(), "400s are not retried")
}

func TestAnthropicClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewAnthropicClient(testLLMConfig(srv.URL), logging.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, Request{Prompt: "p", Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnthropicClient_MissingAPIKey(t *testing.T) {
	cfg := testLLMConfig("http://unused")
	cfg.APIKey = ""
	client := NewAnthropicClient(cfg, logging.Nop())
	_, err := client.Generate(context.Background(), Request{Prompt: "p", Model: "m"})
	assert.Error(t, err)
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		body, _ := json.Marshal(map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{"content": "structured answer"}},
			},
		})
		w.Write(body)
	}))
	defer srv.Close()

	client := NewOpenAIClient(testLLMConfig(srv.URL), logging.Nop())
	resp, err := client.Generate(context.Background(), Request{
		System: "sys",
		Prompt: "user",
		Model:  "gpt-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "structured answer", resp.Text)
	assert.Equal(t, "gpt-test", resp.Model)
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testLLMConfig(srv.URL), logging.Nop())
	_, err := client.Generate(context.Background(), Request{Prompt: "p", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion")
}

func TestNewClient_ProviderSelection(t *testing.T) {
	logger := logging.Nop()
	cfg := testLLMConfig("http://unused")

	t.Run("anthropic", func(t *testing.T) {
		cfg.Provider = "anthropic"
		c, err := NewClient(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &AnthropicClient{}, c)
	})

	t.Run("openai", func(t *testing.T) {
		cfg.Provider = "openai"
		c, err := NewClient(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &OpenAIClient{}, c)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg.Provider = "carrier-pigeon"
		_, err := NewClient(context.Background(), cfg, logger)
		assert.Error(t, err)
	})
}
