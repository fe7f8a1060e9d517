package providers

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

	"github.com/alnah/go-jobcraft/internal/llm"
)

func TestChatCompletions_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "Summarize", body.Messages[0].Content)
		require.NotNil(t, body.MaxTokens)
		assert.Equal(t, 50, *body.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-test-0613",
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": "Done."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 4, "completion_tokens": 2},
		})
	}))
	defer server.Close()

	p := NewChatCompletions(llm.ProviderOpenAI, server.URL+"/v1", "test-key", "gpt-test", server.Client())
	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "Summarize", MaxTokens: 50})
	require.NoError(t, err)

	assert.Equal(t, "Done.", resp.Text)
	assert.Equal(t, "gpt-test-0613", resp.Model)
	assert.Equal(t, llm.Usage{InputTokens: 4, OutputTokens: 2}, resp.Usage)
}

func TestChatCompletions_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		header     map[string]string
		body       string
		wantClass  llm.Class
		wantWait   time.Duration
		wantSubstr string
	}{
		{
			name:      "rate limited with retry-after-ms",
			status:    http.StatusTooManyRequests,
			header:    map[string]string{"retry-after-ms": "1500"},
			body:      `{"error":{"message":"Rate limit reached","type":"requests"}}`,
			wantClass: llm.ClassRateLimited,
			wantWait:  1500 * time.Millisecond,
		},
		{
			name:      "rate limited with retry-after",
			status:    http.StatusTooManyRequests,
			header:    map[string]string{"retry-after": "20"},
			wantClass: llm.ClassRateLimited,
			wantWait:  20 * time.Second,
		},
		{
			name:      "server error",
			status:    http.StatusInternalServerError,
			body:      "upstream exploded",
			wantClass: llm.ClassTransient,
		},
		{
			name:       "bad key",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantClass:  llm.ClassNonRetryable,
			wantSubstr: "Incorrect API key provided",
		},
		{
			name:      "validation",
			status:    http.StatusUnprocessableEntity,
			wantClass: llm.ClassNonRetryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewChatCompletions(llm.ProviderOllama, server.URL, "", "llama", server.Client())
			_, err := p.Complete(context.Background(), llm.Request{Prompt: "hi"})

			var perr *llm.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantClass, perr.Class)
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.Equal(t, llm.ProviderOllama, perr.Provider)
			assert.Equal(t, tt.wantWait, perr.RetryAfter)
			if tt.wantSubstr != "" {
				assert.Contains(t, err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestChatCompletions_ContentFilter(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`))
	}))
	defer server.Close()

	p := NewChatCompletions(llm.ProviderOpenAI, server.URL, "k", "m", server.Client())
	_, err := p.Complete(context.Background(), llm.Request{Prompt: "hi"})

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, llm.ClassNonRetryable, perr.Class)
}

func TestChatCompletions_NetworkErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	p := NewChatCompletions(llm.ProviderOllama, url, "", "m", &http.Client{Timeout: time.Second})
	_, err := p.Complete(context.Background(), llm.Request{Prompt: "hi"})

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, llm.ClassTransient, perr.Class)
}

// The orchestrator and a real HTTP backend together: two 503s then success.
func TestChatCompletions_WithOrchestratorRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"third time"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	o := llm.NewOrchestrator(
		llm.WithProvider(NewChatCompletions(llm.ProviderOllama, server.URL, "", "m", server.Client())),
		llm.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)

	res, err := o.Invoke(context.Background(), llm.ProviderOllama, "hi", 10)
	require.NoError(t, err)
	assert.Equal(t, "third time", res.Text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatCompletions_BlankContentIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"  \n "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	p := NewChatCompletions(llm.ProviderOpenAI, server.URL, "k", "m", server.Client())
	_, err := p.Complete(context.Background(), llm.Request{Prompt: "hi", MaxTokens: 10})

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, llm.ClassTransient, perr.Class)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

// Two blank replies then text: three attempts.
func TestChatCompletions_BlankContentIsRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := "   "
		if calls.Add(1) == 3 {
			content = "finally"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "m",
			"choices": []map[string]any{{"message": map[string]string{"content": content}, "finish_reason": "stop"}},
		})
	}))
	defer server.Close()

	o := llm.NewOrchestrator(
		llm.WithProvider(NewChatCompletions(llm.ProviderOllama, server.URL, "", "m", server.Client())),
		llm.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	res, err := o.Invoke(context.Background(), llm.ProviderOllama, "hi", 10)
	require.NoError(t, err)
	assert.Equal(t, "finally", res.Text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnthropic_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Hello from Claude"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 7, "output_tokens": 4}
		}`))
	}))
	defer server.Close()

	p := NewAnthropic("test-key", "claude-test", server.URL, 5*time.Second, server.Client())
	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "Hi", MaxTokens: 64})
	require.NoError(t, err)

	assert.Equal(t, "Hello from Claude", resp.Text)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, llm.Usage{InputTokens: 7, OutputTokens: 4}, resp.Usage)
}

func TestAnthropic_RateLimitedReadsHeader(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("retry-after", "5")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	p := NewAnthropic("test-key", "claude-test", server.URL, 5*time.Second, server.Client())
	_, err := p.Complete(context.Background(), llm.Request{Prompt: "Hi"})

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, llm.ClassRateLimited, perr.Class)
	assert.Equal(t, 5*time.Second, perr.RetryAfter)
	assert.Equal(t, int32(1), calls.Load(), "sdk retries must be disabled")
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := New(ctx, llm.ProviderOpenAI, Settings{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, llm.ProviderAnthropic, Settings{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, llm.ProviderGemini, Settings{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	p, err := New(ctx, llm.ProviderOllama, Settings{})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOllama, p.ID())

	p, err = New(ctx, llm.ProviderOpenAI, Settings{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, p.ID())

	_, err = New(ctx, llm.ProviderID("cohere"), Settings{})
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "OPENAI_API_KEY", EnvKey(llm.ProviderOpenAI))
	assert.Equal(t, "ANTHROPIC_API_KEY", EnvKey(llm.ProviderAnthropic))
	assert.Equal(t, "GEMINI_API_KEY", EnvKey(llm.ProviderGemini))
	assert.Empty(t, EnvKey(llm.ProviderOllama))
}

func TestCompletionsURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://api.openai.com/v1/chat/completions", completionsURL("https://api.openai.com/v1/"))
	assert.Equal(t, "http://h/v1/chat/completions", completionsURL("http://h/v1/chat/completions"))
}
