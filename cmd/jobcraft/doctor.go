package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-jobcraft/internal/config"
	"github.com/alnah/go-jobcraft/internal/fileutil"
	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/llm/providers"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string         `json:"status"` // "ready", "warnings", "errors"
	Config    configInfo     `json:"config"`
	Chrome    chromeInfo     `json:"chrome"`
	Providers []providerInfo `json:"providers"`
	SMTP      smtpInfo       `json:"smtp"`
	Files     filesInfo      `json:"files"`
	Env       envInfo        `json:"environment"`
	Warnings  []string       `json:"warnings,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
}

type configInfo struct {
	Path     string `json:"path,omitempty"`
	Provider string `json:"provider"`
	Style    string `json:"style"`
	Backend  string `json:"backend"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// providerInfo reports whether a provider's credential is in the
// environment. Values are never read out, only presence.
type providerInfo struct {
	ID       string `json:"id"`
	EnvVar   string `json:"env_var,omitempty"`
	Ready    bool   `json:"ready"`
	Selected bool   `json:"selected"`
}

type smtpInfo struct {
	PasswordSet bool `json:"password_set"`
}

type filesInfo struct {
	Profile         string `json:"profile"`
	ProfileFound    bool   `json:"profile_found"`
	OutputDir       string `json:"output_dir"`
	OutputWritable  bool   `json:"output_writable"`
	TempDirWritable bool   `json:"temp_writable"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(f, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(f *doctorFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	cfg := checkConfig(result, f, env)
	checkChrome(result, cfg)
	checkProviders(result, cfg, env)
	checkFiles(result, cfg)
	checkEnvironment(result, cfg, env)
	result.SMTP.PasswordSet = env.Getenv(config.EnvSMTPPassword) != ""

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads configuration the way generate does. On failure the
// remaining checks run against the defaults.
func checkConfig(result *doctorResult, f *doctorFlags, env *Environment) *config.Config {
	path := f.common.config
	if path == "" {
		path = strings.TrimSpace(env.Getenv(config.EnvConfig))
	}

	cfg, used, err := config.Load(path)
	if err == nil {
		err = cfg.ApplyEnv(env.Getenv)
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		cfg = config.DefaultConfig()
	}

	result.Config = configInfo{
		Path:     used,
		Provider: cfg.LLM.Provider,
		Style:    cfg.Generation.Style,
		Backend:  cfg.Render.Backend,
	}
	return cfg
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult, cfg *config.Config) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		chromePath = cfg.Render.BrowserBin
	}

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, chromePath, "--version").Output() // #nosec G204 -- operator-provided browser path
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1" && !cfg.Render.NoSandbox
}

// checkProviders reports which providers can be used. A selected provider
// without its key is an error.
func checkProviders(result *doctorResult, cfg *config.Config, env *Environment) {
	selected, err := llm.ParseProviderID(cfg.LLM.Provider)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Provider: %v", err))
	}

	for _, id := range llm.ProviderIDs() {
		info := providerInfo{
			ID:       string(id),
			EnvVar:   providers.EnvKey(id),
			Selected: id == selected,
		}
		info.Ready = info.EnvVar == "" || env.Getenv(info.EnvVar) != ""
		result.Providers = append(result.Providers, info)

		if info.Selected && !info.Ready {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Provider %s selected but %s is not set", id, info.EnvVar))
		}
	}
}

// checkFiles verifies the profile and output locations.
func checkFiles(result *doctorResult, cfg *config.Config) {
	result.Files.Profile = cfg.Profile.Path
	result.Files.ProfileFound = fileutil.FileExists(cfg.Profile.Path)
	if !result.Files.ProfileFound {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Profile %s not found. Pass --profile or set %s", cfg.Profile.Path, config.EnvProfile))
	}

	result.Files.OutputDir = cfg.Output.Dir
	if _, err := os.Stat(cfg.Output.Dir); errors.Is(err, os.ErrNotExist) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Output directory %s does not exist yet. It is created on first write", cfg.Output.Dir))
	} else if err := fileutil.DirWritable(cfg.Output.Dir); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %v", err))
	} else {
		result.Files.OutputWritable = true
	}

	if err := fileutil.DirWritable(os.TempDir()); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
	} else {
		result.Files.TempDirWritable = true
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, cfg *config.Config, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" && !cfg.Render.NoSandbox {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env *Environment) (bool, string) {
	if env.Getenv("JOBCRAFT_CONTAINER") == "1" {
		return true, "JOBCRAFT_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := env.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if env.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

func mark(ok bool, bad string) string {
	if ok {
		return "[OK]"
	}
	return bad
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "jobcraft doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration")
	if r.Config.Path != "" {
		fmt.Fprintf(w, "  [OK] File: %s\n", r.Config.Path)
	} else {
		fmt.Fprintln(w, "  [OK] File: none (defaults)")
	}
	fmt.Fprintf(w, "  [OK] Provider: %s, style: %s, backend: %s\n", r.Config.Provider, r.Config.Style, r.Config.Backend)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Providers")
	for _, p := range r.Providers {
		selected := ""
		if p.Selected {
			selected = " (selected)"
		}
		switch {
		case p.EnvVar == "":
			fmt.Fprintf(w, "  [OK] %s%s: local, no key needed\n", p.ID, selected)
		case p.Ready:
			fmt.Fprintf(w, "  [OK] %s%s: %s set\n", p.ID, selected, p.EnvVar)
		default:
			fmt.Fprintf(w, "  %s %s%s: %s not set\n", mark(!p.Selected, "[ERROR]"), p.ID, selected, p.EnvVar)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Files")
	fmt.Fprintf(w, "  %s Profile: %s\n", mark(r.Files.ProfileFound, "[WARN]"), r.Files.Profile)
	fmt.Fprintf(w, "  %s Output directory: %s\n", mark(r.Files.OutputWritable, "[ERROR]"), r.Files.OutputDir)
	fmt.Fprintf(w, "  %s Temp directory\n", mark(r.Files.TempDirWritable, "[ERROR]"))
	if r.SMTP.PasswordSet {
		fmt.Fprintf(w, "  [OK] %s: set\n", config.EnvSMTPPassword)
	} else {
		fmt.Fprintf(w, "  [OK] %s: not set (mail delivery disabled)\n", config.EnvSMTPPassword)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to generate")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
