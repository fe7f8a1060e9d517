package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/alnah/go-jobcraft/internal/llm"
)

// Gemini wraps the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ llm.Provider = (*Gemini)(nil)

// NewGemini creates a provider. baseURL and httpClient are optional.
func NewGemini(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) ID() llm.ProviderID { return llm.ProviderGemini }

// Complete makes one request.
func (g *Gemini) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	var cfg *genai.GenerateContentConfig
	if req.MaxTokens > 0 {
		cfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)} // #nosec G115 -- bounded by config validation
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, classifyGemini(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, llm.NonRetryable(llm.ProviderGemini, 0,
			fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, llm.Transient(llm.ProviderGemini, 0, llm.ErrEmptyResponse)
	}

	out := &llm.Response{Text: text, Model: g.model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}
	return out, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(llm.ProviderGemini, apiErr.Code, nil,
			fmt.Errorf("gemini api error (status %d): %s", apiErr.Code, apiErr.Status))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return llm.ClassifyStatus(llm.ProviderGemini, apiErrPtr.Code, nil,
			fmt.Errorf("gemini api error (status %d): %s", apiErrPtr.Code, apiErrPtr.Status))
	}
	return llm.Transient(llm.ProviderGemini, 0, err)
}
