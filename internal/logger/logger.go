// Package logger builds the slog.Logger used across jobcraft and scrubs
// secrets out of strings before they reach a log line.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config controls handler construction.
type Config struct {
	Format Format
	Level  slog.Level
	Writer io.Writer // defaults to os.Stderr
}

// New returns a logger for cfg. An unknown format is an error so that typos
// in configuration surface instead of silently switching handlers.
func New(cfg Config) (*slog.Logger, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.Level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			if a.Value.Kind() == slog.KindString {
				a.Value = slog.StringValue(Redact(a.Value.String()))
			}
			return a
		},
	}

	switch cfg.Format {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", cfg.Format)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

type redaction struct {
	re   *regexp.Regexp
	with string
}

var redactions = []redaction{
	{regexp.MustCompile(`sk-(?:ant-)?[A-Za-z0-9_-]{20,}`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{30,}`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`(?i)(api[_-]?key|x-api-key)["']?\s*[:=]\s*["']?[A-Za-z0-9_.-]+`), "${1}=[REDACTED]"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)["']?\s*[:=]\s*["']?[^\s"'&]+`), "${1}=[REDACTED]"},
	{regexp.MustCompile(`(?i)(token|secret)["']?\s*[:=]\s*["']?[A-Za-z0-9_.-]{8,}`), "${1}=[REDACTED]"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_.-]+`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`([?&]key=)[^&\s]+`), "${1}[REDACTED]"},
}

// Redact masks API keys, passwords and bearer tokens in s.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}
