package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   Class
	}{
		{http.StatusTooManyRequests, ClassRateLimited},
		{http.StatusRequestTimeout, ClassTransient},
		{http.StatusInternalServerError, ClassTransient},
		{http.StatusBadGateway, ClassTransient},
		{http.StatusServiceUnavailable, ClassTransient},
		{529, ClassTransient},
		{http.StatusBadRequest, ClassNonRetryable},
		{http.StatusUnauthorized, ClassNonRetryable},
		{http.StatusForbidden, ClassNonRetryable},
		{http.StatusNotFound, ClassNonRetryable},
		{http.StatusUnprocessableEntity, ClassNonRetryable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			got := ClassifyStatus(ProviderOpenAI, tt.status, nil, errors.New("x"))
			assert.Equal(t, tt.want, got.Class)
			assert.Equal(t, tt.status, got.StatusCode)
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
		wantOK bool
	}{
		{name: "nil header", header: nil},
		{name: "seconds", header: http.Header{"Retry-After": {"12"}}, want: 12 * time.Second, wantOK: true},
		{name: "fractional seconds", header: http.Header{"Retry-After": {"1.5"}}, want: 1500 * time.Millisecond, wantOK: true},
		{name: "milliseconds", header: http.Header{"Retry-After-Ms": {"250"}}, want: 250 * time.Millisecond, wantOK: true},
		{name: "seconds preferred", header: http.Header{"Retry-After": {"3"}, "Retry-After-Ms": {"10"}}, want: 3 * time.Second, wantOK: true},
		{name: "http date", header: http.Header{"Retry-After": {now.Add(30 * time.Second).Format(http.TimeFormat)}}, want: 30 * time.Second, wantOK: true},
		{name: "past date", header: http.Header{"Retry-After": {now.Add(-time.Hour).Format(http.TimeFormat)}}, want: 0, wantOK: true},
		{name: "garbage", header: http.Header{"Retry-After": {"soon"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseRetryAfter(tt.header, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyStatus_ReadsRetryAfter(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("retry-after", "9")
	got := ClassifyStatus(ProviderAnthropic, 429, h, errors.New("rate limited"))
	assert.Equal(t, 9*time.Second, got.RetryAfter)
}

func TestAsProviderError(t *testing.T) {
	t.Parallel()

	plain := AsProviderError(ProviderOllama, errors.New("dial tcp: refused"))
	assert.Equal(t, ClassTransient, plain.Class)
	assert.Equal(t, ProviderOllama, plain.Provider)

	orig := NonRetryable("", 401, errors.New("bad key"))
	got := AsProviderError(ProviderOpenAI, orig)
	assert.Equal(t, ProviderOpenAI, got.Provider)
	assert.Equal(t, ClassNonRetryable, got.Class)
	assert.Empty(t, orig.Provider, "original must not be mutated")
}

func TestParseProviderID(t *testing.T) {
	t.Parallel()

	id, err := ParseProviderID(" Anthropic ")
	assert.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, id)

	_, err = ParseProviderID("cohere")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Len(t, ProviderIDs(), 4)
}

func TestRetryPolicy_Decide(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()

	d := p.decide(1, Transient(ProviderOpenAI, 500, nil))
	assert.Equal(t, backoffFixed, d.kind)
	assert.Equal(t, time.Second, d.delay)

	d = p.decide(2, Transient(ProviderOpenAI, 500, nil))
	assert.Equal(t, 2*time.Second, d.delay)

	d = p.decide(3, Transient(ProviderOpenAI, 500, nil))
	assert.Equal(t, backoffStop, d.kind)

	d = p.decide(1, RateLimited(ProviderOpenAI, 429, 90*time.Second, nil))
	assert.Equal(t, backoffProviderSpecified, d.kind)
	assert.Equal(t, 60*time.Second, d.delay)

	d = p.decide(1, NonRetryable(ProviderOpenAI, 401, nil))
	assert.Equal(t, backoffStop, d.kind)

	long := RetryPolicy{MaxAttempts: 6, Delays: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}}
	assert.Equal(t, 4*time.Second, long.decide(5, Transient(ProviderOpenAI, 0, nil)).delay)
}
