package document

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/go-jobcraft/internal/assets"
	"github.com/alnah/go-jobcraft/internal/dateutil"
	"github.com/alnah/go-jobcraft/internal/job"
	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/metrics"
	"github.com/alnah/go-jobcraft/internal/pipeline"
	"github.com/alnah/go-jobcraft/internal/profile"
)

// Request asks for one document.
type Request struct {
	RequestID string
	Profile   *profile.Profile
	Job       *job.Listing
	Style     Style
	Kind      Kind
	Provider  llm.ProviderID
}

// Rendered is a complete HTML document ready for printing.
type Rendered struct {
	HTML  string
	Title string
	Style Style
	Kind  Kind

	// Language is the language the document is written in.
	Language job.Language

	// FallbackSections lists sections rendered from profile data because
	// their model call failed.
	FallbackSections []SectionID
}

// Engine selects a strategy by style and drives it.
type Engine struct {
	asm        *assembler
	loader     assets.AssetLoader
	extraCSS   string
	dateFormat string
	now        func() time.Time
	logger     *slog.Logger

	mu         sync.Mutex
	strategies map[Style]Strategy
}

// Option configures an Engine.
type Option func(*Engine)

// WithFallbackPolicy sets what happens when a section's model call fails.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(e *Engine) {
		e.asm.policy = p
	}
}

// WithAssetLoader replaces the embedded shells, typically with an
// assets.AssetResolver over an operator directory.
func WithAssetLoader(l assets.AssetLoader) Option {
	return func(e *Engine) {
		if l != nil {
			e.loader = l
		}
	}
}

// WithExtraCSS appends a stylesheet to every document.
func WithExtraCSS(css string) Option {
	return func(e *Engine) {
		e.extraCSS = css
	}
}

// WithDateFormat sets the cover letter date format (dateutil presets or
// tokens).
func WithDateFormat(format string) Option {
	return func(e *Engine) {
		if format != "" {
			e.dateFormat = format
		}
	}
}

// WithClock overrides time.Now for the cover letter date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithFragmenter overrides the Markdown converter.
func WithFragmenter(f pipeline.Fragmenter) Option {
	return func(e *Engine) {
		if f != nil {
			e.asm.conv = f
		}
	}
}

// WithLogger sets the logger for assembly and fallback events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
			e.asm.logger = l
		}
	}
}

// WithMetrics counts fallback sections in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.asm.metrics = m
	}
}

// NewEngine creates an Engine whose sections are written through inv.
func NewEngine(inv Invoker, opts ...Option) *Engine {
	e := &Engine{
		asm: &assembler{
			llm:    inv,
			conv:   pipeline.NewGoldmarkConverter(),
			policy: FallbackDeterministic,
			logger: slog.Default(),
		},
		loader:     assets.Default(),
		dateFormat: dateutil.DefaultDateFormat,
		now:        time.Now,
		logger:     slog.Default(),
		strategies: make(map[Style]Strategy),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the strategy registered for style, building it on first
// use.
func (e *Engine) Strategy(style Style) (Strategy, error) {
	ctor, ok := registry[style]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.strategies[style]; ok {
		return s, nil
	}
	s, err := ctor(strategyDeps{asm: e.asm, loader: e.loader})
	if err != nil {
		return nil, err
	}
	e.strategies[style] = s
	return s, nil
}

// Generate validates req, then assembles and wraps the document. Style and
// kind are checked before any model call.
func (e *Engine) Generate(ctx context.Context, req Request) (*Rendered, error) {
	strategy, err := e.Strategy(req.Style)
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	req.Kind = kind
	if req.Profile == nil || req.Job == nil {
		return nil, fmt.Errorf("%w: profile and job are required", ErrInvalidRequest)
	}

	in := SectionInput{
		RequestID: req.RequestID,
		Profile:   req.Profile,
		Job:       req.Job,
		Kind:      req.Kind,
		Provider:  req.Provider,
	}
	if req.Kind == KindCoverLetter {
		date, err := dateutil.Format(e.dateFormat, e.now())
		if err != nil {
			return nil, err
		}
		in.Date = date
	}

	sections, err := strategy.AssembleSections(ctx, in)
	if err != nil {
		return nil, err
	}

	html, err := strategy.Wrap(WrapInput{
		Sections: sections,
		Profile:  req.Profile,
		Job:      req.Job,
		Kind:     req.Kind,
		Date:     in.Date,
	})
	if err != nil {
		return nil, err
	}
	html = pipeline.InjectCSS(html, e.extraCSS)

	out := &Rendered{
		HTML:  html,
		Title: documentTitle(WrapInput{Profile: req.Profile, Job: req.Job, Kind: req.Kind}),
		Style:    req.Style,
		Kind:     req.Kind,
		Language: req.Job.Language(),
	}
	for _, s := range sections {
		if s.Fallback {
			out.FallbackSections = append(out.FallbackSections, s.ID)
		}
	}

	e.logger.Debug("document assembled",
		"request_id", req.RequestID,
		"style", string(req.Style),
		"kind", string(req.Kind),
		"language", string(out.Language),
		"sections", len(sections),
		"fallback_sections", len(out.FallbackSections),
	)
	return out, nil
}
