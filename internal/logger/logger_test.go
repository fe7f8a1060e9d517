package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		leak    string
		wantSub string
	}{
		{
			name:    "openai key",
			in:      "request failed for key sk-abcdefghijklmnopqrstuvwxyz012345",
			leak:    "sk-abcdefghijklmnopqrstuvwxyz012345",
			wantSub: "[API_KEY_REDACTED]",
		},
		{
			name:    "anthropic key",
			in:      "sk-ant-REDACTED",
			leak:    "AAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			wantSub: "[API_KEY_REDACTED]",
		},
		{
			name:    "api_key assignment",
			in:      `config api_key: "hunter2value"`,
			leak:    "hunter2value",
			wantSub: "api_key=[REDACTED]",
		},
		{
			name:    "password",
			in:      "smtp login password=s3cr3t! failed",
			leak:    "s3cr3t!",
			wantSub: "password=[REDACTED]",
		},
		{
			name:    "bearer header",
			in:      "Authorization: Bearer abc.def-ghi",
			leak:    "abc.def-ghi",
			wantSub: "Bearer [REDACTED]",
		},
		{
			name:    "query key",
			in:      "GET https://example.com/v1/models?key=XYZ123&alt=json",
			leak:    "XYZ123",
			wantSub: "?key=[REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Redact(tt.in)
			if strings.Contains(got, tt.leak) {
				t.Errorf("Redact(%q) = %q, still contains secret", tt.in, got)
			}
			if !strings.Contains(got, tt.wantSub) {
				t.Errorf("Redact(%q) = %q, want substring %q", tt.in, got, tt.wantSub)
			}
		})
	}
}

func TestRedact_LeavesPlainTextAlone(t *testing.T) {
	t.Parallel()

	in := "fetched https://example.com/job/42 in 120ms"
	if got := Redact(in); got != in {
		t.Errorf("Redact(%q) = %q, want unchanged", in, got)
	}
}

func TestNew_JSONRedactsAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Config{Format: FormatJSON, Level: slog.LevelInfo, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info("provider call", "error", "401 for Bearer topsecret")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "provider call" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if strings.Contains(buf.String(), "topsecret") {
		t.Errorf("secret leaked: %s", buf.String())
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
