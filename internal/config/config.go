// Package config loads jobcraft settings from YAML, then applies JOBCRAFT_*
// environment overrides. Credentials are never read from files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-jobcraft/internal/dateutil"
	"github.com/alnah/go-jobcraft/internal/document"
	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/logger"
	"github.com/alnah/go-jobcraft/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")

	// ErrPlaintextCredential rejects config files carrying secrets. API keys
	// and passwords come from the environment only.
	ErrPlaintextCredential = errors.New("credentials are not allowed in config files")
)

// Bounds for numeric settings.
const (
	MaxTimeout      = 10 * time.Minute
	MaxRedirects    = 10
	MinBodyBytes    = 1 << 10
	MaxBodyBytes    = 50 << 20
	MinMargin       = 0.25
	MaxMargin       = 3.0
	DefaultMargin   = 0.5
	MaxUserAgentLen = 256
)

// Config holds all settings.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Render     RenderConfig     `yaml:"render"`
	Generation GenerationConfig `yaml:"generation"`
	Profile    ProfileConfig    `yaml:"profile"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

type LLMConfig struct {
	Provider  string                    `yaml:"provider"`
	Timeout   Duration                  `yaml:"timeout"` // per attempt
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig overrides a backend's model and endpoint.
type ProviderConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

type FetchConfig struct {
	Timeout      Duration `yaml:"timeout"`
	MaxRedirects int      `yaml:"maxRedirects"`
	MaxBodyBytes int64    `yaml:"maxBodyBytes"`
	MaxTextRunes int      `yaml:"maxTextRunes"`
	UserAgent    string   `yaml:"userAgent"`
}

type RenderConfig struct {
	Backend    string     `yaml:"backend"` // "rod" or "chromedp"
	Timeout    Duration   `yaml:"timeout"`
	BrowserBin string     `yaml:"browserBin"`
	NoSandbox  bool       `yaml:"noSandbox"`
	Page       PageConfig `yaml:"page"`
}

type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // inches
}

type GenerationConfig struct {
	Style      string `yaml:"style"`
	Kind       string `yaml:"kind"`
	Fallback   string `yaml:"fallback"` // "deterministic" or "fail"
	DateFormat string `yaml:"dateFormat"`
	AssetsDir  string `yaml:"assetsDir"` // empty = embedded shells only
	ExtraCSS   string `yaml:"extraCSS"`  // path to a stylesheet added to every document
}

type ProfileConfig struct {
	Path string `yaml:"path"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns working defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: string(llm.ProviderOpenAI),
			Timeout:  Duration(120 * time.Second),
		},
		Fetch: FetchConfig{
			Timeout:      Duration(10 * time.Second),
			MaxRedirects: 3,
			MaxBodyBytes: 5 << 20,
			MaxTextRunes: 20000,
		},
		Render: RenderConfig{
			Backend: "rod",
			Timeout: Duration(30 * time.Second),
			Page:    PageConfig{Size: "letter", Orientation: "portrait", Margin: DefaultMargin},
		},
		Generation: GenerationConfig{
			Style:      string(document.DefaultStyle),
			Kind:       string(document.KindResume),
			Fallback:   string(document.FallbackDeterministic),
			DateFormat: dateutil.DefaultDateFormat,
		},
		Profile: ProfileConfig{Path: "resume.yaml"},
		Output:  OutputConfig{Dir: "."},
		Log:     LogConfig{Level: "info", Format: string(logger.FormatText)},
		Server:  ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Validate checks enumerations and bounds.
func (c *Config) Validate() error {
	if _, err := llm.ParseProviderID(c.LLM.Provider); err != nil {
		return fmt.Errorf("%w: llm.provider: %v", ErrInvalidConfig, err)
	}
	for name := range c.LLM.Providers {
		if _, err := llm.ParseProviderID(name); err != nil {
			return fmt.Errorf("%w: llm.providers.%s: %v", ErrInvalidConfig, name, err)
		}
	}

	for _, d := range []struct {
		field string
		value Duration
	}{
		{"llm.timeout", c.LLM.Timeout},
		{"fetch.timeout", c.Fetch.Timeout},
		{"render.timeout", c.Render.Timeout},
	} {
		if d.value <= 0 || time.Duration(d.value) > MaxTimeout {
			return fmt.Errorf("%w: %s: must be between 0 and %s, got %s", ErrInvalidConfig, d.field, MaxTimeout, d.value)
		}
	}

	if c.Fetch.MaxRedirects < 0 || c.Fetch.MaxRedirects > MaxRedirects {
		return fmt.Errorf("%w: fetch.maxRedirects: must be between 0 and %d, got %d", ErrInvalidConfig, MaxRedirects, c.Fetch.MaxRedirects)
	}
	if c.Fetch.MaxBodyBytes < MinBodyBytes || c.Fetch.MaxBodyBytes > MaxBodyBytes {
		return fmt.Errorf("%w: fetch.maxBodyBytes: must be between %d and %d, got %d", ErrInvalidConfig, MinBodyBytes, MaxBodyBytes, c.Fetch.MaxBodyBytes)
	}
	if c.Fetch.MaxTextRunes <= 0 {
		return fmt.Errorf("%w: fetch.maxTextRunes: must be positive", ErrInvalidConfig)
	}
	if len(c.Fetch.UserAgent) > MaxUserAgentLen {
		return fmt.Errorf("%w: fetch.userAgent: exceeds %d chars", ErrInvalidConfig, MaxUserAgentLen)
	}

	switch strings.ToLower(c.Render.Backend) {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("%w: render.backend: %q (must be rod or chromedp)", ErrInvalidConfig, c.Render.Backend)
	}
	if err := c.Render.Page.validate(); err != nil {
		return err
	}

	if _, err := document.ParseStyle(c.Generation.Style); err != nil {
		return fmt.Errorf("%w: generation.style: %v", ErrInvalidConfig, err)
	}
	if _, err := document.ParseKind(c.Generation.Kind); err != nil {
		return fmt.Errorf("%w: generation.kind: %v", ErrInvalidConfig, err)
	}
	if _, err := document.ParseFallbackPolicy(c.Generation.Fallback); err != nil {
		return fmt.Errorf("%w: generation.fallback: %v", ErrInvalidConfig, err)
	}
	if _, err := dateutil.Layout(c.Generation.DateFormat); err != nil {
		return fmt.Errorf("%w: generation.dateFormat: %v", ErrInvalidConfig, err)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	switch logger.Format(strings.ToLower(c.Log.Format)) {
	case logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format: %q (must be text or json)", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}

func (p PageConfig) validate() error {
	switch strings.ToLower(p.Size) {
	case "letter", "a4", "legal":
	default:
		return fmt.Errorf("%w: render.page.size: %q (must be letter, a4 or legal)", ErrInvalidConfig, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case "portrait", "landscape":
	default:
		return fmt.Errorf("%w: render.page.orientation: %q (must be portrait or landscape)", ErrInvalidConfig, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: render.page.margin: %.2f (must be between %.2f and %.2f)", ErrInvalidConfig, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// Load reads the config file at path, or searches the standard locations
// when path is empty. Without any file the defaults are returned. The
// returned string is the file used, empty when none.
func Load(path string) (*Config, string, error) {
	if path == "" {
		found, ok := Search()
		if !ok {
			cfg := DefaultConfig()
			return cfg, "", cfg.Validate()
		}
		path = found
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFile decodes path strictly over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is chosen by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes data strictly over the defaults. A document holding any
// credential-like key is rejected before decoding.
func Parse(data []byte) (*Config, error) {
	if err := checkCredentials(data); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists the files Load tries, in order.
func SearchPaths() []string {
	paths := []string{"jobcraft.yaml", "jobcraft.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "go-jobcraft", "config.yaml"),
			filepath.Join(dir, "go-jobcraft", "config.yml"),
		)
	}
	return paths
}

// Search returns the first existing file from SearchPaths.
func Search() (string, bool) {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
