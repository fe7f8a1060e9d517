package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alnah/go-jobcraft/internal/llm"
)

// Anthropic wraps the Messages API. SDK retries are disabled so the
// orchestrator's policy is the only one in effect.
type Anthropic struct {
	client anthropic.Client
	model  string
}

var _ llm.Provider = (*Anthropic)(nil)

// NewAnthropic creates a provider. baseURL and httpClient are optional.
func NewAnthropic(apiKey, model, baseURL string, timeout time.Duration, httpClient *http.Client) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}
}

func (a *Anthropic) ID() llm.ProviderID { return llm.ProviderAnthropic }

// Complete makes one request.
func (a *Anthropic) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.Prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, classifyAnthropic(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	if text.Len() == 0 {
		if msg.StopReason == "refusal" {
			return nil, llm.NonRetryable(llm.ProviderAnthropic, 0, errors.New("model refused the request"))
		}
		return nil, llm.Transient(llm.ProviderAnthropic, 0, llm.ErrEmptyResponse)
	}

	return &llm.Response{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		return llm.ClassifyStatus(llm.ProviderAnthropic, apiErr.StatusCode, header,
			fmt.Errorf("anthropic api error (status %d)", apiErr.StatusCode))
	}
	return llm.Transient(llm.ProviderAnthropic, 0, err)
}
