// Package providers implements llm.Provider for OpenAI, Anthropic, Gemini
// and Ollama.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alnah/go-jobcraft/internal/llm"
)

// ErrMissingAPIKey is returned when a hosted provider has no credential.
var ErrMissingAPIKey = errors.New("api key not set")

// Default models and endpoints.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultOllamaModel    = "llama3.1"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOllamaBaseURL = "http://localhost:11434/v1"

	DefaultTimeout = 120 * time.Second
)

// Settings configures one backend. APIKey comes from the environment, never
// from a config file.
type Settings struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type factory func(ctx context.Context, s Settings) (llm.Provider, error)

var factories = map[llm.ProviderID]factory{
	llm.ProviderOpenAI: func(_ context.Context, s Settings) (llm.Provider, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", ErrMissingAPIKey)
		}
		return NewChatCompletions(llm.ProviderOpenAI,
			or(s.BaseURL, DefaultOpenAIBaseURL), s.APIKey, or(s.Model, DefaultOpenAIModel), httpClient(s)), nil
	},
	llm.ProviderOllama: func(_ context.Context, s Settings) (llm.Provider, error) {
		return NewChatCompletions(llm.ProviderOllama,
			or(s.BaseURL, DefaultOllamaBaseURL), s.APIKey, or(s.Model, DefaultOllamaModel), httpClient(s)), nil
	},
	llm.ProviderAnthropic: func(_ context.Context, s Settings) (llm.Provider, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("anthropic: %w (set ANTHROPIC_API_KEY)", ErrMissingAPIKey)
		}
		return NewAnthropic(s.APIKey, or(s.Model, DefaultAnthropicModel), s.BaseURL, timeout(s), s.HTTPClient), nil
	},
	llm.ProviderGemini: func(ctx context.Context, s Settings) (llm.Provider, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w (set GEMINI_API_KEY)", ErrMissingAPIKey)
		}
		return NewGemini(ctx, s.APIKey, or(s.Model, DefaultGeminiModel), s.BaseURL, httpClient(s))
	},
}

// New builds the backend for id.
func New(ctx context.Context, id llm.ProviderID, s Settings) (llm.Provider, error) {
	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", llm.ErrUnknownProvider, id)
	}
	return f(ctx, s)
}

// EnvKey names the environment variable holding id's credential. Ollama
// needs none.
func EnvKey(id llm.ProviderID) string {
	switch id {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

func httpClient(s Settings) *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: timeout(s)}
}

func timeout(s Settings) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
