// Package metrics holds the Prometheus collectors shared by the pipeline
// stages. A nil *Metrics is valid and records nothing, so components can take
// it as an optional dependency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobcraft"

// Metrics groups every collector exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	llmAttempts    *prometheus.CounterVec
	llmCalls       *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	renderCreated  prometheus.Counter
	documents      *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		llmAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "attempts_total",
			Help:      "Provider call attempts, including retries.",
		}, []string{"provider"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "invocations_total",
			Help:      "Completed provider invocations by outcome.",
		}, []string{"provider", "outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Job page fetches by outcome.",
		}, []string{"outcome"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time spent printing HTML to PDF.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		renderCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "browser_launches_total",
			Help:      "Renderer instances created by the pool.",
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Generation requests by style, kind and result category.",
		}, []string{"style", "kind", "category"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "fallback_sections_total",
			Help:      "Sections rendered from profile data after a provider failure.",
		}, []string{"style", "section"}),
	}

	m.registry.MustRegister(
		m.llmAttempts,
		m.llmCalls,
		m.fetches,
		m.renderDuration,
		m.renderCreated,
		m.documents,
		m.fallbacks,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// The recorders below are no-ops on a nil *Metrics.

// LLMAttempt counts one provider call, retries included.
func (m *Metrics) LLMAttempt(provider string) {
	if m == nil {
		return
	}
	m.llmAttempts.WithLabelValues(provider).Inc()
}

// LLMOutcome counts the final outcome of one Invoke.
func (m *Metrics) LLMOutcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Fetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// RenderDuration observes one render, successful or not.
func (m *Metrics) RenderDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) RendererCreated() {
	if m == nil {
		return
	}
	m.renderCreated.Inc()
}

// Document counts a finished request by its error category, or "ok".
func (m *Metrics) Document(style, kind, category string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(style, kind, category).Inc()
}

func (m *Metrics) Fallback(style, section string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(style, section).Inc()
}
