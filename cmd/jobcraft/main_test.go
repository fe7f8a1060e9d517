package main

// Notes:
// - Commands are exercised through run() with an injected Environment: a
//   fake Service, in-memory stdout/stderr and a map-backed Getenv. No
//   browser or network is involved.
// - Configuration always comes from an explicit --config file in a temp
//   directory so the user's own config never leaks into a test.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/config"
	"github.com/alnah/go-jobcraft/internal/document"
)

// fakeService records inputs and returns a canned result or err.
type fakeService struct {
	mu     sync.Mutex
	inputs []jobcraft.GenerateInput
	err    error
	closed bool
}

func (f *fakeService) Generate(_ context.Context, in jobcraft.GenerateInput) (*jobcraft.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &jobcraft.Result{
		Artifact:         &jobcraft.Artifact{PDF: []byte("%PDF"), SuggestedFilename: "0123456789-resume.pdf", Pages: 1},
		OutputPath:       filepath.Join(in.OutputPath, "0123456789-resume.pdf"),
		Style:            document.Style(in.Style),
		Kind:             document.KindResume,
		Role:             "Backend Engineer",
		Company:          "Acme",
		FallbackSections: []document.SectionID{"summary"},
	}, nil
}

func (f *fakeService) Styles() []string { return document.StyleNames() }

func (f *fakeService) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type testEnv struct {
	*Environment
	stdout, stderr *bytes.Buffer
	svc            *fakeService
	cfg            *config.Config
	newErr         error
}

func newTestEnv(t *testing.T, vars map[string]string) *testEnv {
	t.Helper()
	te := &testEnv{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, svc: &fakeService{}}
	te.Environment = &Environment{
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return vars[k] },
		NewService: func(cfg *config.Config, _ ...jobcraft.Option) (Service, error) {
			te.cfg = cfg
			if te.newErr != nil {
				return nil, te.newErr
			}
			return te.svc, nil
		},
	}
	return te
}

// writeConfig writes a config file whose profile and output live in a temp
// directory and returns (config path, output dir).
func writeConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o750); err != nil {
		t.Fatal(err)
	}
	data := "profile:\n  path: " + filepath.Join(dir, "resume.yaml") + "\n" +
		"output:\n  dir: " + out + "\n" + extra
	path := filepath.Join(dir, "jobcraft.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path, out
}

// ---------------------------------------------------------------------------
// TestRun_Dispatch - Command routing and top-level exit codes
// ---------------------------------------------------------------------------

func TestRun_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitUsage, "", "Usage: jobcraft"},
		{"unknown command", []string{"frobnicate"}, ExitUsage, "", "Unknown command: frobnicate"},
		{"version", []string{"version"}, ExitSuccess, "jobcraft dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help generate", []string{"help", "generate"}, ExitSuccess, "jobcraft generate <job-url>", ""},
		{"help serve", []string{"help", "serve"}, ExitSuccess, "/v1/documents", ""},
		{"help unknown", []string{"help", "nope"}, ExitSuccess, "", "Unknown command: nope"},
		{"styles", []string{"styles"}, ExitSuccess, "classic (default)", ""},
		{"styles with args", []string{"styles", "extra"}, ExitUsage, "", "no arguments"},
		{"generate --help", []string{"generate", "--help"}, ExitSuccess, "", "jobcraft generate <job-url>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(t, nil)
			code := run(tt.args, te.Environment)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstderr: %s", code, tt.wantCode, te.stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(te.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, te.stdout)
			}
			if tt.wantStderr != "" && !strings.Contains(te.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, te.stderr)
			}
		})
	}
}

func TestRunStyles_ListsEveryStyle(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t, nil)
	if code := run([]string{"styles"}, te.Environment); code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(te.stdout.String()), "\n")
	if len(lines) != len(document.StyleNames()) {
		t.Errorf("got %d lines, want %d:\n%s", len(lines), len(document.StyleNames()), te.stdout)
	}
}
