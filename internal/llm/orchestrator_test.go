package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-jobcraft/internal/logger"
)

// scriptedProvider returns the scripted errors in order, then succeeds.
type scriptedProvider struct {
	id     ProviderID
	mu     sync.Mutex
	script []error
	calls  int
}

func (s *scriptedProvider) ID() ProviderID { return s.id }

func (s *scriptedProvider) Complete(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.script) > 0 {
		err := s.script[0]
		s.script = s.script[1:]
		if err != nil {
			return nil, err
		}
	}
	return &Response{Text: "ok: " + req.Prompt, Model: "fake-1", Usage: Usage{InputTokens: 3, OutputTokens: 2}}, nil
}

func (s *scriptedProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingSleeper captures requested delays without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

var _ Provider = (*scriptedProvider)(nil)

// replyProvider returns the scripted texts in order.
type replyProvider struct {
	id      ProviderID
	mu      sync.Mutex
	replies []string
	calls   int
}

func (r *replyProvider) ID() ProviderID { return r.id }

func (r *replyProvider) Complete(context.Context, Request) (*Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text := r.replies[min(r.calls, len(r.replies)-1)]
	r.calls++
	return &Response{Text: text, Model: "fake-1"}, nil
}

func newTestOrchestrator(p Provider, s *recordingSleeper) *Orchestrator {
	return NewOrchestrator(
		WithProvider(p),
		WithSleeper(s.Sleep),
		WithLogger(logger.Discard()),
	)
}

func TestInvoke_SucceedsFirstTry(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{id: ProviderOpenAI}
	s := &recordingSleeper{}

	res, err := newTestOrchestrator(p, s).Invoke(context.Background(), ProviderOpenAI, "hello", 64)
	require.NoError(t, err)

	assert.Equal(t, "ok: hello", res.Text)
	assert.Equal(t, ProviderOpenAI, res.Provider)
	assert.Equal(t, "fake-1", res.Model)
	assert.Equal(t, 1, res.Attempts)
	assert.NotEmpty(t, res.RequestID)
	assert.Empty(t, s.Delays())
}

func TestInvoke_TransientTwiceThenSuccess(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{id: ProviderAnthropic, script: []error{
		Transient(ProviderAnthropic, http.StatusServiceUnavailable, errors.New("overloaded")),
		errors.New("connection reset by peer"),
	}}
	s := &recordingSleeper{}

	res, err := newTestOrchestrator(p, s).Invoke(context.Background(), ProviderAnthropic, "prompt", 100)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.Delays())
}

func TestInvoke_NonRetryableStopsAfterOneAttempt(t *testing.T) {
	t.Parallel()

	for _, status := range []int{400, 401, 403, 404, 422} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()

			p := &scriptedProvider{id: ProviderGemini, script: []error{
				ClassifyStatus(ProviderGemini, status, nil, errors.New("rejected")),
			}}
			s := &recordingSleeper{}

			_, err := newTestOrchestrator(p, s).Invoke(context.Background(), ProviderGemini, "prompt", 100)

			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.ErrorIs(t, err, ErrProvider)
			assert.Equal(t, ClassNonRetryable, perr.Class)
			assert.Equal(t, status, perr.StatusCode)
			assert.Equal(t, 1, perr.Attempts)
			assert.Equal(t, 1, p.Calls())
			assert.Empty(t, s.Delays())
		})
	}
}

func TestInvoke_ExhaustedAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	fail := Transient(ProviderOllama, http.StatusBadGateway, errors.New("bad gateway"))
	p := &scriptedProvider{id: ProviderOllama, script: []error{fail, fail, fail, fail}}
	s := &recordingSleeper{}

	_, err := newTestOrchestrator(p, s).Invoke(context.Background(), ProviderOllama, "prompt", 100)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassExhausted, perr.Class)
	assert.Equal(t, 3, perr.Attempts)
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.Delays())

	var last *ProviderError
	require.ErrorAs(t, perr.Err, &last)
	assert.Equal(t, ClassTransient, last.Class)
}

func TestInvoke_RateLimitWaits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		retryAfter time.Duration
		wantDelay  time.Duration
	}{
		{name: "provider hint used", retryAfter: 7 * time.Second, wantDelay: 7 * time.Second},
		{name: "hint capped at 60s", retryAfter: 10 * time.Minute, wantDelay: 60 * time.Second},
		{name: "no hint uses fixed delay", retryAfter: 0, wantDelay: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &scriptedProvider{id: ProviderOpenAI, script: []error{
				RateLimited(ProviderOpenAI, http.StatusTooManyRequests, tt.retryAfter, errors.New("slow down")),
			}}
			s := &recordingSleeper{}

			res, err := newTestOrchestrator(p, s).Invoke(context.Background(), ProviderOpenAI, "prompt", 100)
			require.NoError(t, err)

			assert.Equal(t, 2, res.Attempts)
			assert.Equal(t, []time.Duration{tt.wantDelay}, s.Delays())
		})
	}
}

func TestInvoke_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProvider{id: ProviderOpenAI, script: []error{
		Transient(ProviderOpenAI, 500, errors.New("boom")),
	}}

	o := NewOrchestrator(
		WithProvider(p),
		WithLogger(logger.Discard()),
		WithSleeper(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	_, err := o.Invoke(ctx, ProviderOpenAI, "prompt", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrProvider)
	assert.Equal(t, 1, p.Calls())
}

func TestInvoke_RealSleeperHonorsCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := &scriptedProvider{id: ProviderOpenAI, script: []error{
		RateLimited(ProviderOpenAI, 429, 30*time.Second, errors.New("quota")),
	}}
	o := NewOrchestrator(WithProvider(p), WithLogger(logger.Discard()))

	start := time.Now()
	_, err := o.Invoke(ctx, ProviderOpenAI, "prompt", 10)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestInvoke_InputValidation(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(WithProvider(&scriptedProvider{id: ProviderOpenAI}), WithLogger(logger.Discard()))

	_, err := o.Invoke(context.Background(), ProviderOpenAI, "   ", 10)
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = o.Invoke(context.Background(), ProviderID("mistral"), "hi", 10)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = o.Invoke(context.Background(), ProviderGemini, "hi", 10)
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestInvoke_ConcurrentCallsAreIndependent(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{id: ProviderOpenAI}
	o := newTestOrchestrator(p, &recordingSleeper{})

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := o.Invoke(context.Background(), ProviderOpenAI, "p", 1)
			if assert.NoError(t, err) {
				ids[i] = res.RequestID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "request IDs must be unique")
		seen[id] = true
	}
	assert.Equal(t, 16, p.Calls())
}

func TestProviders(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(
		WithProvider(&scriptedProvider{id: ProviderOpenAI}),
		WithProvider(&scriptedProvider{id: ProviderAnthropic}),
	)
	assert.Equal(t, []ProviderID{ProviderAnthropic, ProviderOpenAI}, o.Providers())
	assert.True(t, o.Has(ProviderOpenAI))
	assert.False(t, o.Has(ProviderGemini))
}

func TestInvoke_BlankReplyIsRetried(t *testing.T) {
	t.Parallel()

	p := &replyProvider{id: ProviderGemini, replies: []string{"   ", "", "section text"}}
	s := &recordingSleeper{}

	res, err := newTestOrchestrator(p, s).Invoke(context.Background(), ProviderGemini, "prompt", 100)
	require.NoError(t, err)

	assert.Equal(t, "section text", res.Text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.Delays())
}

func TestInvoke_BlankRepliesExhaustBudget(t *testing.T) {
	t.Parallel()

	p := &replyProvider{id: ProviderGemini, replies: []string{" "}}

	_, err := newTestOrchestrator(p, &recordingSleeper{}).Invoke(context.Background(), ProviderGemini, "prompt", 100)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassExhausted, perr.Class)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 3, p.calls)
}

func TestInvoke_NormalizesProviderName(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{id: ProviderOpenAI}

	res, err := newTestOrchestrator(p, &recordingSleeper{}).Invoke(context.Background(), " OpenAI ", "prompt", 100)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, res.Provider)
	assert.Equal(t, 1, p.Calls())
}
