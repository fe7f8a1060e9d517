// Package llm calls interchangeable language model providers behind one
// retry policy. Backends live in internal/llm/providers.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-jobcraft/internal/metrics"
)

// Invocation describes one attempt. It lives for a single Invoke call.
type Invocation struct {
	RequestID   string
	Provider    ProviderID
	Prompt      string
	MaxTokens   int
	Attempt     int
	MaxAttempts int
}

// Result is a successful invocation.
type Result struct {
	RequestID string
	Text      string
	Provider  ProviderID
	Model     string
	Attempts  int
	Usage     Usage
	Duration  time.Duration
}

// Orchestrator routes prompts to providers with retry and rate-limit
// handling. It holds no per-call state and is safe for concurrent use.
type Orchestrator struct {
	providers map[ProviderID]Provider
	policy    RetryPolicy
	sleep     Sleeper
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvider registers p under p.ID(), replacing any previous backend.
func WithProvider(p Provider) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.providers[p.ID()] = p
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		if p.MaxAttempts > 0 {
			o.policy = p
		}
	}
}

// WithSleeper replaces the backoff wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records attempts and outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: make(map[ProviderID]Provider),
		policy:    DefaultRetryPolicy(),
		sleep:     sleepContext,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Providers lists the configured backends.
func (o *Orchestrator) Providers() []ProviderID {
	out := make([]ProviderID, 0, len(o.providers))
	for id := range o.providers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether provider is configured.
func (o *Orchestrator) Has(provider ProviderID) bool {
	_, ok := o.providers[provider]
	return ok
}

// Invoke sends prompt to provider. Failures are *ProviderError (matching
// ErrProvider) unless the context ended, in which case the context error is
// returned wrapped.
func (o *Orchestrator) Invoke(ctx context.Context, provider ProviderID, prompt string, maxTokens int) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	provider, err := ParseProviderID(string(provider))
	if err != nil {
		return nil, err
	}
	backend, ok := o.providers[provider]
	if !ok {
		return nil, NonRetryable(provider, 0, ErrProviderNotConfigured)
	}

	inv := Invocation{
		RequestID:   uuid.NewString(),
		Provider:    provider,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		MaxAttempts: o.policy.MaxAttempts,
	}
	log := o.logger.With("llm_request_id", inv.RequestID, "provider", string(provider))
	start := time.Now()

	for inv.Attempt = 1; ; inv.Attempt++ {
		if err := ctx.Err(); err != nil {
			o.metrics.LLMOutcome(string(provider), "canceled")
			return nil, fmt.Errorf("invoke %s: %w", provider, err)
		}

		o.metrics.LLMAttempt(string(provider))
		resp, err := backend.Complete(ctx, Request{Prompt: inv.Prompt, MaxTokens: inv.MaxTokens})
		if err == nil && strings.TrimSpace(resp.Text) == "" {
			err = Transient(provider, 0, ErrEmptyResponse)
		}
		if err == nil {
			o.metrics.LLMOutcome(string(provider), "ok")
			log.Debug("llm call succeeded",
				"attempt", inv.Attempt,
				"model", resp.Model,
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)
			return &Result{
				RequestID: inv.RequestID,
				Text:      resp.Text,
				Provider:  provider,
				Model:     resp.Model,
				Attempts:  inv.Attempt,
				Usage:     resp.Usage,
				Duration:  time.Since(start),
			}, nil
		}

		// A provider failing because the caller gave up is not a provider fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			o.metrics.LLMOutcome(string(provider), "canceled")
			return nil, fmt.Errorf("invoke %s: %w", provider, ctxErr)
		}

		perr := AsProviderError(provider, err)
		decision := o.policy.decide(inv.Attempt, perr)

		if decision.kind == backoffStop {
			return nil, o.giveUp(log, inv, perr)
		}

		log.Warn("llm call failed, retrying",
			"attempt", inv.Attempt,
			"max_attempts", inv.MaxAttempts,
			"class", string(perr.Class),
			"status", perr.StatusCode,
			"backoff", decision.kind.String(),
			"delay", decision.delay,
			"error", perr.Err,
		)

		if err := o.sleep(ctx, decision.delay); err != nil {
			o.metrics.LLMOutcome(string(provider), "canceled")
			return nil, fmt.Errorf("invoke %s: waiting to retry: %w", provider, err)
		}
	}
}

func (o *Orchestrator) giveUp(log *slog.Logger, inv Invocation, last *ProviderError) *ProviderError {
	if last.Class == ClassNonRetryable {
		last.Attempts = inv.Attempt
		o.metrics.LLMOutcome(string(inv.Provider), string(ClassNonRetryable))
		log.Warn("llm call failed, not retryable",
			"attempt", inv.Attempt,
			"status", last.StatusCode,
			"error", last.Err,
		)
		return last
	}

	o.metrics.LLMOutcome(string(inv.Provider), string(ClassExhausted))
	log.Warn("llm retry budget exhausted",
		"attempts", inv.Attempt,
		"last_class", string(last.Class),
		"status", last.StatusCode,
		"error", last.Err,
	)
	return &ProviderError{
		Provider:   inv.Provider,
		Class:      ClassExhausted,
		StatusCode: last.StatusCode,
		Attempts:   inv.Attempt,
		Err:        last,
	}
}
