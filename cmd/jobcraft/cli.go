package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	flag "github.com/spf13/pflag"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/config"
	"github.com/alnah/go-jobcraft/internal/document"
	"github.com/alnah/go-jobcraft/internal/hints"
	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/llm/providers"
	"github.com/alnah/go-jobcraft/internal/logger"
)

// run dispatches args (without the program name) and returns the exit code.
func run(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "generate", "gen":
		err = runGenerate(ctx, rest, env)
	case "serve":
		err = runServe(ctx, rest, env)
	case "styles":
		err = runStyles(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "jobcraft %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %s\n", logger.Redact(err.Error()))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// loadConfig resolves configuration: --config, then JOBCRAFT_CONFIG, then
// the search paths, then JOBCRAFT_* overrides.
func loadConfig(f *commonFlags, env *Environment) (*config.Config, error) {
	path := f.config
	if path == "" {
		path = strings.TrimSpace(env.Getenv(config.EnvConfig))
	}

	cfg, used, err := config.Load(path)
	if err != nil {
		return nil, withHint(fmt.Errorf("loading config: %w", err), hintFor(err, ""))
	}
	if err := cfg.ApplyEnv(env.Getenv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if used != "" && f.verbose {
		fmt.Fprintf(env.Stderr, "Using config %s\n", used)
	}
	return cfg, nil
}

// newLogger builds the command logger. --verbose and --quiet override the
// configured level.
func newLogger(cfg *config.Config, f *commonFlags, w io.Writer) (*slog.Logger, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	switch {
	case f.verbose:
		level = slog.LevelDebug
	case f.quiet:
		level = slog.LevelError
	}

	format := cfg.Log.Format
	if f.logFormat != "" {
		format = f.logFormat
	}
	l, err := logger.New(logger.Config{Format: logger.Format(format), Level: level, Writer: w})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return l, nil
}

// hintedError appends an actionable hint to an error message.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() + e.hint }
func (e *hintedError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return &hintedError{err: err, hint: hint}
}

// hintFor picks the hint matching err. provider names the selected model
// provider, if known.
func hintFor(err error, provider llm.ProviderID) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths())
	case errors.Is(err, jobcraft.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, llm.ErrProviderNotConfigured), errors.Is(err, providers.ErrMissingAPIKey):
		return hints.ForMissingAPIKey(providers.EnvKey(provider))
	case errors.Is(err, jobcraft.ErrUnknownStyle):
		return hints.ForStyleNotFound(document.StyleNames())
	case errors.Is(err, jobcraft.ErrBlockedURL):
		return hints.ForBlockedURL()
	case errors.Is(err, jobcraft.ErrOutputWrite):
		return hints.ForOutputDirectory()
	case errors.Is(err, context.DeadlineExceeded):
		switch jobcraft.Category(err) {
		case jobcraft.CategoryFetchFailure:
			return hints.ForTimeout("fetch")
		case jobcraft.CategoryRenderFailure:
			return hints.ForTimeout("render")
		case jobcraft.CategoryProviderError:
			return hints.ForTimeout("llm")
		}
	}
	return ""
}
