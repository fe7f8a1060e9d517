package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-jobcraft/internal/config"
)

// ErrUsage marks command-line mistakes.
var ErrUsage = errors.New("usage error")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// generateFlags holds flags for the generate command.
type generateFlags struct {
	common   commonFlags
	style    string
	kind     string
	provider string
	model    string
	profile  string
	output   string
	fallback string
	backend  string
	timeout  string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common commonFlags
	addr   string
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path (default: search jobcraft.yaml)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

func newFlagSet(name string, stderr io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parse runs fs and tags failures as usage errors. --help comes back as
// flag.ErrHelp untouched.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return fs.Args(), nil
}

func parseGenerateFlags(args []string, stderr io.Writer) (*generateFlags, []string, error) {
	f := &generateFlags{}
	fs := newFlagSet("generate", stderr, printGenerateUsage)

	fs.StringVarP(&f.style, "style", "s", "", "design style: classic, modern, sidebar")
	fs.StringVarP(&f.kind, "kind", "k", "", "document kind: resume, cover-letter")
	fs.StringVarP(&f.provider, "provider", "p", "", "model provider: openai, anthropic, gemini, ollama")
	fs.StringVarP(&f.model, "model", "m", "", "model name for the selected provider")
	fs.StringVar(&f.profile, "profile", "", "candidate profile YAML")
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.fallback, "fallback", "", "on provider failure: deterministic, fail")
	fs.StringVar(&f.backend, "backend", "", "PDF renderer: rod, chromedp")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 30s, 2m)")
	addCommonFlags(fs, &f.common)

	positional, err := parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, positional, nil
}

func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", stderr, printServeUsage)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default from config)")
	addCommonFlags(fs, &f.common)

	positional, err := parse(fs, args)
	if err != nil {
		return nil, err
	}
	if len(positional) > 0 {
		return nil, fmt.Errorf("%w: serve takes no arguments", ErrUsage)
	}
	return f, nil
}

func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", stderr, printDoctorUsage)
	fs.BoolVar(&f.json, "json", false, "machine-readable output")
	addCommonFlags(fs, &f.common)

	if _, err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}

// mergeGenerateFlags applies explicitly set flags over cfg (CLI wins).
// Style, kind and provider travel with the request instead so that the
// service reports them in its own error categories.
func mergeGenerateFlags(f *generateFlags, cfg *config.Config) error {
	if f.profile != "" {
		cfg.Profile.Path = f.profile
	}
	if f.fallback != "" {
		cfg.Generation.Fallback = f.fallback
	}
	if f.backend != "" {
		cfg.Render.Backend = f.backend
	}
	if f.model != "" {
		provider := f.provider
		if provider == "" {
			provider = cfg.LLM.Provider
		}
		cfg.SetModel(strings.ToLower(strings.TrimSpace(provider)), f.model)
	}
	if f.timeout != "" {
		d, err := config.ParseDuration(f.timeout)
		if err != nil {
			return fmt.Errorf("%w: --timeout: %w", ErrUsage, err)
		}
		cfg.Render.Timeout = d
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}
