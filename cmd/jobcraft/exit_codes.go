package main

import (
	"errors"
	"os"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/config"
)

// Exit codes for the jobcraft CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0   // Document generated
	ExitGeneral  = 1   // General/unexpected error
	ExitUsage    = 2   // Invalid flags, config, style or input
	ExitIO       = 3   // Profile unreadable, output not writable
	ExitBrowser  = 4   // Browser/Chrome errors
	ExitNetwork  = 5   // Job URL blocked or unreachable
	ExitProvider = 6   // Language model provider failed
	ExitCanceled = 130 // Interrupted (128 + SIGINT)
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, config.ErrPlaintextCredential) {
		return ExitUsage
	}

	switch jobcraft.Category(err) {
	case jobcraft.CategoryCanceled:
		return ExitCanceled
	case jobcraft.CategoryInvalidInput, jobcraft.CategoryUnknownStyle:
		return ExitUsage
	case jobcraft.CategoryCacheLoad:
		return ExitIO
	case jobcraft.CategoryRenderFailure:
		return ExitBrowser
	case jobcraft.CategoryBlockedURL, jobcraft.CategoryFetchFailure:
		return ExitNetwork
	case jobcraft.CategoryProviderError:
		return ExitProvider
	}

	if errors.Is(err, jobcraft.ErrOutputWrite) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}
	if errors.Is(err, jobcraft.ErrBrowserConnect) {
		return ExitBrowser
	}

	return ExitGeneral
}
