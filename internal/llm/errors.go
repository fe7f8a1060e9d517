package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrProvider matches every *ProviderError with errors.Is.
	ErrProvider = errors.New("llm provider error")

	ErrUnknownProvider       = errors.New("unknown llm provider")
	ErrProviderNotConfigured = errors.New("llm provider not configured")
	ErrEmptyPrompt           = errors.New("prompt is empty")
	ErrEmptyResponse         = errors.New("response has no text content")
)

// Class is the retry classification of a provider failure.
type Class string

const (
	// ClassRateLimited is HTTP 429 or an equivalent quota signal.
	ClassRateLimited Class = "rate_limited"
	// ClassTransient covers timeouts, network errors, 408 and 5xx.
	ClassTransient Class = "transient"
	// ClassNonRetryable covers auth, validation and content policy failures.
	ClassNonRetryable Class = "non_retryable"
	// ClassExhausted wraps the last failure once the retry budget is spent.
	ClassExhausted Class = "exhausted"
)

// ProviderError is the only failure type Invoke returns for provider trouble.
type ProviderError struct {
	Provider   ProviderID
	Class      Class
	StatusCode int           // 0 when no HTTP status was seen
	RetryAfter time.Duration // provider-supplied wait, rate-limited only
	Attempts   int           // set by the orchestrator
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Provider, e.Class)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Retryable reports whether another attempt may succeed.
func (e *ProviderError) Retryable() bool {
	return e.Class == ClassRateLimited || e.Class == ClassTransient
}

// RateLimited builds a rate-limit failure.
func RateLimited(p ProviderID, status int, retryAfter time.Duration, err error) *ProviderError {
	return &ProviderError{Provider: p, Class: ClassRateLimited, StatusCode: status, RetryAfter: retryAfter, Err: err}
}

// Transient builds a retryable failure.
func Transient(p ProviderID, status int, err error) *ProviderError {
	return &ProviderError{Provider: p, Class: ClassTransient, StatusCode: status, Err: err}
}

// NonRetryable builds a failure that must not be retried.
func NonRetryable(p ProviderID, status int, err error) *ProviderError {
	return &ProviderError{Provider: p, Class: ClassNonRetryable, StatusCode: status, Err: err}
}

// ClassifyStatus maps an HTTP failure to a ProviderError. header may be nil.
func ClassifyStatus(p ProviderID, status int, header http.Header, err error) *ProviderError {
	switch {
	case status == http.StatusTooManyRequests:
		wait, _ := ParseRetryAfter(header, time.Now())
		return RateLimited(p, status, wait, err)
	case status == http.StatusRequestTimeout, status >= 500:
		return Transient(p, status, err)
	default:
		return NonRetryable(p, status, err)
	}
}

// ParseRetryAfter reads retry-after (seconds or HTTP date) and then
// retry-after-ms. ok is false when neither header holds a usable value.
func ParseRetryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second)), true
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := at.Sub(now); d > 0 {
				return d, true
			}
			return 0, true
		}
	}
	if v := strings.TrimSpace(h.Get("Retry-After-Ms")); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms >= 0 {
			return time.Duration(ms * float64(time.Millisecond)), true
		}
	}
	return 0, false
}

// AsProviderError returns err as a *ProviderError. Unclassified errors are
// treated as transient since they are almost always transport failures.
func AsProviderError(p ProviderID, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		cp := *pe
		if cp.Provider == "" {
			cp.Provider = p
		}
		return &cp
	}
	return Transient(p, 0, err)
}
