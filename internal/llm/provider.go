package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderID names a language model backend.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
	ProviderOllama    ProviderID = "ollama"
)

var knownProviders = []ProviderID{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama}

// ProviderIDs lists every supported provider in a stable order.
func ProviderIDs() []ProviderID {
	out := make([]ProviderID, len(knownProviders))
	copy(out, knownProviders)
	return out
}

// ParseProviderID validates s against the closed provider set.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range knownProviders {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Request is one completion call.
type Request struct {
	Prompt    string
	MaxTokens int
}

// Usage reports token consumption when the backend returns it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is a successful completion.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Provider is a single backend. Implementations make exactly one attempt per
// call and report classified failures as *ProviderError; retrying is the
// orchestrator's job.
type Provider interface {
	ID() ProviderID
	Complete(ctx context.Context, req Request) (*Response, error)
}
