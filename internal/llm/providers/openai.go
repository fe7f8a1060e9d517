package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alnah/go-jobcraft/internal/llm"
)

// maxResponseSize limits a completion body.
const maxResponseSize = 10 << 20

// ChatCompletions speaks the OpenAI chat completions protocol. It serves
// both OpenAI and Ollama's OpenAI-compatible endpoint.
type ChatCompletions struct {
	id     llm.ProviderID
	url    string
	apiKey string
	model  string
	client *http.Client
}

var _ llm.Provider = (*ChatCompletions)(nil)

// NewChatCompletions creates a client for baseURL. apiKey may be empty for
// local servers.
func NewChatCompletions(id llm.ProviderID, baseURL, apiKey, model string, client *http.Client) *ChatCompletions {
	return &ChatCompletions{
		id:     id,
		url:    completionsURL(baseURL),
		apiKey: apiKey,
		model:  model,
		client: client,
	}
}

func completionsURL(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

func (c *ChatCompletions) ID() llm.ProviderID { return c.id }

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete makes one request.
func (c *ChatCompletions) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	body := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.MaxTokens > 0 {
		n := req.MaxTokens
		body.MaxTokens = &n
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NonRetryable(c.id, 0, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, llm.NonRetryable(c.id, 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llm.Transient(c.id, 0, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, llm.Transient(c.id, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.ClassifyStatus(c.id, resp.StatusCode, resp.Header, apiMessage(resp.StatusCode, raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, llm.Transient(c.id, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return nil, llm.Transient(c.id, resp.StatusCode, errors.New("response has no choices"))
	}
	if parsed.Choices[0].FinishReason == "content_filter" {
		return nil, llm.NonRetryable(c.id, resp.StatusCode, errors.New("completion blocked by content filter"))
	}
	if strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, llm.Transient(c.id, resp.StatusCode, llm.ErrEmptyResponse)
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}
	return &llm.Response{
		Text:  parsed.Choices[0].Message.Content,
		Model: model,
		Usage: llm.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		},
	}, nil
}

// apiMessage extracts the error message from an error body without echoing
// large or unexpected payloads.
func apiMessage(status int, raw []byte) error {
	var ce chatError
	if err := json.Unmarshal(raw, &ce); err == nil && ce.Error.Message != "" {
		return fmt.Errorf("api error (status %d): %s", status, ce.Error.Message)
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Errorf("api error (status %d): %s", status, s)
}
