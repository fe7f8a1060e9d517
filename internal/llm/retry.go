package llm

import (
	"context"
	"time"
)

// RetryPolicy is shared by every provider.
type RetryPolicy struct {
	// MaxAttempts counts the first call.
	MaxAttempts int

	// Delays[i] is the wait after failed attempt i+1. The last entry repeats
	// if MaxAttempts exceeds len(Delays)+1.
	Delays []time.Duration

	// MaxRetryAfter caps a provider-specified wait.
	MaxRetryAfter time.Duration
}

// DefaultRetryPolicy returns 3 attempts with fixed 1s, 2s, 4s delays and a
// 60s ceiling on provider-specified waits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		Delays:        []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		MaxRetryAfter: 60 * time.Second,
	}
}

type backoffKind int

const (
	backoffStop backoffKind = iota
	backoffFixed
	backoffProviderSpecified
)

func (k backoffKind) String() string {
	switch k {
	case backoffFixed:
		return "fixed"
	case backoffProviderSpecified:
		return "provider_specified"
	default:
		return "stop"
	}
}

// backoffDecision is the outcome of one failed attempt.
type backoffDecision struct {
	kind  backoffKind
	delay time.Duration
}

func (p RetryPolicy) decide(attempt int, err *ProviderError) backoffDecision {
	if !err.Retryable() || attempt >= p.MaxAttempts {
		return backoffDecision{kind: backoffStop}
	}

	if err.Class == ClassRateLimited && err.RetryAfter > 0 {
		wait := err.RetryAfter
		if p.MaxRetryAfter > 0 && wait > p.MaxRetryAfter {
			wait = p.MaxRetryAfter
		}
		return backoffDecision{kind: backoffProviderSpecified, delay: wait}
	}

	return backoffDecision{kind: backoffFixed, delay: p.fixedDelay(attempt)}
}

func (p RetryPolicy) fixedDelay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	i := attempt - 1
	if i >= len(p.Delays) {
		i = len(p.Delays) - 1
	}
	if i < 0 {
		i = 0
	}
	return p.Delays[i]
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
