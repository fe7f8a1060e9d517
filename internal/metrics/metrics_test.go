package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.LLMAttempt("openai")
	m.LLMOutcome("openai", "ok")
	m.Fetch("ok")
	m.RenderDuration(time.Second)
	m.RendererCreated()
	m.Document("classic", "resume", "ok")
	m.Fallback("classic", "summary")

	if m.Registry() != nil {
		t.Error("nil Metrics should have nil registry")
	}
	if m.Handler() == nil {
		t.Error("nil Metrics should still serve a handler")
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.LLMAttempt("anthropic")
	m.LLMAttempt("anthropic")
	m.Fetch("blocked")

	body := scrape(t, m)
	for _, want := range []string{
		`jobcraft_llm_attempts_total{provider="anthropic"} 2`,
		`jobcraft_fetch_requests_total{outcome="blocked"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.RendererCreated()

	if body := scrape(t, m); !strings.Contains(body, "jobcraft_render_browser_launches_total 1") {
		t.Errorf("exposition missing launch counter:\n%s", body)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	return rec.Body.String()
}
