// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-jobcraft/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser launch errors.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use a local Chrome")
	}

	return formatHints(hints)
}

// ForTimeout suggests the relevant timeout setting.
func ForTimeout(stage string) string {
	switch stage {
	case "fetch":
		return format("raise fetch.timeout or JOBCRAFT_FETCH_TIMEOUT")
	case "render":
		return format("raise render.timeout or JOBCRAFT_RENDER_TIMEOUT")
	case "llm":
		return format("raise llm.timeout or JOBCRAFT_LLM_TIMEOUT")
	}
	return ""
}

// ForMissingAPIKey names the variable a provider reads its key from.
func ForMissingAPIKey(envVar string) string {
	if envVar == "" {
		return ""
	}
	return format("export " + envVar + " (keys are never read from config files)")
}

// ForConfigNotFound suggests --config or one of the searched paths.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, "go-jobcraft") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound lists the registered styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForBlockedURL explains what the URL guard accepts.
func ForBlockedURL() string {
	return format("only public http(s) job postings can be fetched")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
