package document

import "errors"

var (
	// ErrUnknownStyle is returned before any model call when the requested
	// style has no registered strategy.
	ErrUnknownStyle = errors.New("unknown style")

	ErrUnknownKind = errors.New("unknown document kind")

	// ErrInvalidRequest reports a request without a profile or job.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrSectionFailed wraps the model error of a section when the fallback
	// policy is FallbackFail, or when the failure is not a provider error.
	ErrSectionFailed = errors.New("section generation failed")

	ErrWrap = errors.New("document template rendering failed")
)
