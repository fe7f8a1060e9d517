package jobcraft

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"blocked", fmt.Errorf("%w: loopback", ErrBlockedURL), CategoryBlockedURL},
		{"fetch", fmt.Errorf("%w: HTTP 500", ErrFetchFailure), CategoryFetchFailure},
		{"provider", fmt.Errorf("%w: exhausted", ErrProviderError), CategoryProviderError},
		{"style", fmt.Errorf("%w: brutalist", ErrUnknownStyle), CategoryUnknownStyle},
		{"render", fmt.Errorf("%w: crash", ErrRenderFailure), CategoryRenderFailure},
		{"cache", fmt.Errorf("%w: missing", ErrCacheLoadFailure), CategoryCacheLoad},
		{"input", fmt.Errorf("%w: empty url", ErrInvalidInput), CategoryInvalidInput},
		{"canceled sentinel", fmt.Errorf("%w: %w", ErrCanceled, ErrFetchFailure), CategoryCanceled},
		{"context canceled inside fetch", fmt.Errorf("%w: %w", ErrFetchFailure, context.Canceled), CategoryCanceled},
		{"unclassified", errors.New("boom"), CategoryInternal},
		{"internal", fmt.Errorf("%w: panic", ErrInternal), CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Category(tt.err); got != tt.want {
				t.Errorf("Category() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, c := range Categories() {
		if seen[c] {
			t.Errorf("duplicate category %q", c)
		}
		seen[c] = true
	}
	if len(seen) != 9 {
		t.Errorf("got %d categories, want 9", len(seen))
	}
}
