package jobcraft

import (
	"context"
	"errors"
)

// Category sentinels. Every error returned by Service.Generate wraps exactly
// one of them, alongside the component's own typed error.
var (
	ErrBlockedURL       = errors.New("blocked url")
	ErrFetchFailure     = errors.New("fetch failed")
	ErrProviderError    = errors.New("language model provider failed")
	ErrUnknownStyle     = errors.New("unknown style")
	ErrRenderFailure    = errors.New("render failed")
	ErrCacheLoadFailure = errors.New("profile load failed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrCanceled         = errors.New("request canceled")
	ErrInternal         = errors.New("internal error")
)

// Renderer errors.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrInvalidPDF     = errors.New("renderer output is not a readable PDF")

	// ErrRendererCrashed marks a failure after which the renderer must be
	// replaced. The pool recreates it on the next acquire.
	ErrRendererCrashed = errors.New("renderer crashed")

	ErrPoolClosed      = errors.New("renderer pool closed")
	ErrHandleReleased  = errors.New("renderer handle already released")
	ErrUnknownBackend  = errors.New("unknown renderer backend")
	ErrServiceClosed   = errors.New("service closed")
	ErrOutputWrite     = errors.New("writing output failed")
	ErrProfileRequired = errors.New("profile path is required")
)

// Page settings validation errors.
var (
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// Error categories returned by Category.
const (
	CategoryBlockedURL    = "blocked_url"
	CategoryFetchFailure  = "fetch_failure"
	CategoryProviderError = "provider_error"
	CategoryUnknownStyle  = "unknown_style"
	CategoryRenderFailure = "render_failure"
	CategoryCacheLoad     = "cache_load_failure"
	CategoryInvalidInput  = "invalid_input"
	CategoryCanceled      = "canceled"
	CategoryInternal      = "internal"
)

// categories is checked in order; cancellation wins over whatever stage
// noticed it.
var categories = []struct {
	err  error
	name string
}{
	{ErrCanceled, CategoryCanceled},
	{context.Canceled, CategoryCanceled},
	{ErrBlockedURL, CategoryBlockedURL},
	{ErrUnknownStyle, CategoryUnknownStyle},
	{ErrInvalidInput, CategoryInvalidInput},
	{ErrCacheLoadFailure, CategoryCacheLoad},
	{ErrProviderError, CategoryProviderError},
	{ErrFetchFailure, CategoryFetchFailure},
	{ErrRenderFailure, CategoryRenderFailure},
}

// Category names the failure class of err. It returns "" for nil and
// "internal" for anything unclassified.
func Category(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.name
		}
	}
	return CategoryInternal
}

// Categories lists every category name Category can return.
func Categories() []string {
	return []string{
		CategoryBlockedURL,
		CategoryFetchFailure,
		CategoryProviderError,
		CategoryUnknownStyle,
		CategoryRenderFailure,
		CategoryCacheLoad,
		CategoryInvalidInput,
		CategoryCanceled,
		CategoryInternal,
	}
}
