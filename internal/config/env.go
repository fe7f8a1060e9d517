package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-jobcraft/internal/yamlutil"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig        = "JOBCRAFT_CONFIG"
	EnvProvider      = "JOBCRAFT_PROVIDER"
	EnvModel         = "JOBCRAFT_MODEL"
	EnvStyle         = "JOBCRAFT_STYLE"
	EnvKind          = "JOBCRAFT_KIND"
	EnvFallback      = "JOBCRAFT_FALLBACK"
	EnvLLMTimeout    = "JOBCRAFT_LLM_TIMEOUT"
	EnvFetchTimeout  = "JOBCRAFT_FETCH_TIMEOUT"
	EnvRenderTimeout = "JOBCRAFT_RENDER_TIMEOUT"
	EnvRenderBackend = "JOBCRAFT_RENDER_BACKEND"
	EnvProfile       = "JOBCRAFT_PROFILE"
	EnvOutputDir     = "JOBCRAFT_OUTPUT_DIR"
	EnvLogLevel      = "JOBCRAFT_LOG_LEVEL"
	EnvLogFormat     = "JOBCRAFT_LOG_FORMAT"
	EnvAddr          = "JOBCRAFT_ADDR"

	// EnvSMTPPassword is reserved for the mail collaborator that sends
	// generated documents. jobcraft only reports whether it is set.
	EnvSMTPPassword = "JOBCRAFT_SMTP_PASSWORD"
)

// ApplyEnv overrides c from JOBCRAFT_* variables and validates the result.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		*dst = d
		return nil
	}

	str(EnvProvider, &c.LLM.Provider)
	str(EnvStyle, &c.Generation.Style)
	str(EnvKind, &c.Generation.Kind)
	str(EnvFallback, &c.Generation.Fallback)
	str(EnvRenderBackend, &c.Render.Backend)
	str(EnvProfile, &c.Profile.Path)
	str(EnvOutputDir, &c.Output.Dir)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogFormat, &c.Log.Format)
	str(EnvAddr, &c.Server.Addr)

	// The model override applies to whichever provider is selected.
	if model := strings.TrimSpace(getenv(EnvModel)); model != "" {
		c.SetModel(c.LLM.Provider, model)
	}

	for key, dst := range map[string]*Duration{
		EnvLLMTimeout:    &c.LLM.Timeout,
		EnvFetchTimeout:  &c.Fetch.Timeout,
		EnvRenderTimeout: &c.Render.Timeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	return c.Validate()
}

// SetModel sets the model used for provider.
func (c *Config) SetModel(provider, model string) {
	if c.LLM.Providers == nil {
		c.LLM.Providers = make(map[string]ProviderConfig)
	}
	pc := c.LLM.Providers[provider]
	pc.Model = model
	c.LLM.Providers[provider] = pc
}

// Duration is a time.Duration written as "30s" or as whole seconds.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := ParseDuration(v)
		if err != nil {
			return err
		}
		*d = parsed
	case uint64:
		*d = Duration(time.Duration(v) * time.Second) // #nosec G115 -- bounded by Validate
	case int64:
		*d = Duration(time.Duration(v) * time.Second)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// ParseDuration accepts a Go duration ("90s", "2m") or whole seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return Duration(time.Duration(secs) * time.Second), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

// credentialKeys are matched against the last segment of every key path,
// lowercased with "_" and "-" removed.
var credentialKeys = []string{"apikey", "password", "passwd", "pwd", "secret", "token", "accesskey", "privatekey", "credentials"}

func checkCredentials(data []byte) error {
	paths, err := yamlutil.KeyPaths(data)
	if err != nil {
		// Let the strict decode report syntax errors.
		return nil
	}
	for _, p := range paths {
		key := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(yamlutil.LastKey(p)))
		for _, c := range credentialKeys {
			if key == c || strings.HasSuffix(key, c) {
				return fmt.Errorf("%w: %s (use environment variables)", ErrPlaintextCredential, p)
			}
		}
	}
	return nil
}
