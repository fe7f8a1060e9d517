package jobcraft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-jobcraft/internal/assets"
	"github.com/alnah/go-jobcraft/internal/config"
	"github.com/alnah/go-jobcraft/internal/document"
	"github.com/alnah/go-jobcraft/internal/fetch"
	"github.com/alnah/go-jobcraft/internal/fileutil"
	"github.com/alnah/go-jobcraft/internal/job"
	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/llm/providers"
	"github.com/alnah/go-jobcraft/internal/metrics"
	"github.com/alnah/go-jobcraft/internal/profile"
	"github.com/alnah/go-jobcraft/internal/urlguard"
)

// JobFetcher retrieves a job posting page.
type JobFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

var _ JobFetcher = (*fetch.Fetcher)(nil)

// Service runs the whole pipeline: profile, fetch, extraction, generation
// and PDF rendering. It is safe for concurrent use.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	fetcher  JobFetcher
	llm      *llm.Orchestrator
	jobs     *job.Extractor
	engine   *document.Engine
	profiles *profile.Cache
	pool     *RendererPool
	pdf      *PDFStep
	closed   atomic.Bool
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	fetcher   JobFetcher
	renderer  RendererFactory
	providers []llm.Provider
	llmOpts   []llm.Option
	getenv    func(string) string
	now       func() time.Time
}

// WithLogger sets the logger passed to every component of the service.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records fetches, model calls, renders and documents in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithFetcher replaces the guarded HTTP fetcher.
func WithFetcher(f JobFetcher) Option {
	return func(o *serviceOptions) {
		o.fetcher = f
	}
}

// WithRendererFactory replaces the browser backend chosen by render.backend.
func WithRendererFactory(f RendererFactory) Option {
	return func(o *serviceOptions) {
		o.renderer = f
	}
}

// WithProvider registers a language model backend, replacing the one built
// from the environment for the same ID.
func WithProvider(p llm.Provider) Option {
	return func(o *serviceOptions) {
		if p != nil {
			o.providers = append(o.providers, p)
		}
	}
}

// WithLLMOptions passes options through to the orchestrator, e.g. a retry
// policy or sleeper.
func WithLLMOptions(opts ...llm.Option) Option {
	return func(o *serviceOptions) {
		o.llmOpts = append(o.llmOpts, opts...)
	}
}

// WithGetenv overrides os.Getenv for credential lookup.
func WithGetenv(fn func(string) string) Option {
	return func(o *serviceOptions) {
		if fn != nil {
			o.getenv = fn
		}
	}
}

// WithClock overrides the cover letter date source.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds a Service from cfg. Providers whose API key is missing from the
// environment are left unregistered; requests naming them fail as invalid
// input.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	o := serviceOptions{
		logger: slog.Default(),
		getenv: os.Getenv,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	orch, err := buildOrchestrator(cfg, o)
	if err != nil {
		return nil, err
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = fetch.New(
			fetch.WithTimeout(cfg.Fetch.Timeout.Std()),
			fetch.WithMaxRedirects(cfg.Fetch.MaxRedirects),
			fetch.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
			fetch.WithMaxTextRunes(cfg.Fetch.MaxTextRunes),
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
			fetch.WithLogger(o.logger),
			fetch.WithMetrics(o.metrics),
		)
	}

	engine, err := buildEngine(cfg, orch, o)
	if err != nil {
		return nil, err
	}

	factory := o.renderer
	if factory == nil {
		factory, err = BackendFactory(cfg.Render.Backend, BrowserOptions{
			Bin:       cfg.Render.BrowserBin,
			NoSandbox: cfg.Render.NoSandbox,
		}, o.logger)
		if err != nil {
			return nil, err
		}
	}
	pool := NewRendererPool(factory,
		WithRenderTimeout(cfg.Render.Timeout.Std()),
		WithPoolLogger(o.logger),
		WithPoolMetrics(o.metrics),
	)
	page := &PageSettings{
		Size:        cfg.Render.Page.Size,
		Orientation: cfg.Render.Page.Orientation,
		Margin:      cfg.Render.Page.Margin,
	}

	return &Service{
		cfg:      cfg,
		logger:   o.logger,
		metrics:  o.metrics,
		fetcher:  fetcher,
		llm:      orch,
		jobs:     job.NewExtractor(orch, o.logger),
		engine:   engine,
		profiles: profile.NewCache(o.logger),
		pool:     pool,
		pdf:      NewPDFStep(pool, page, o.logger),
	}, nil
}

func buildOrchestrator(cfg *config.Config, o serviceOptions) (*llm.Orchestrator, error) {
	opts := []llm.Option{llm.WithLogger(o.logger), llm.WithMetrics(o.metrics)}

	for _, id := range llm.ProviderIDs() {
		pc := cfg.LLM.Providers[string(id)]
		env := providers.EnvKey(id)
		key := ""
		if env != "" {
			key = o.getenv(env)
			if key == "" {
				o.logger.Debug("provider disabled, no api key", "provider", string(id), "env", env)
				continue
			}
		}
		p, err := providers.New(context.Background(), id, providers.Settings{
			APIKey:  key,
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
			Timeout: cfg.LLM.Timeout.Std(),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: provider %s: %w", ErrInvalidInput, id, err)
		}
		opts = append(opts, llm.WithProvider(p))
	}
	for _, p := range o.providers {
		opts = append(opts, llm.WithProvider(p))
	}
	opts = append(opts, o.llmOpts...)
	return llm.NewOrchestrator(opts...), nil
}

func buildEngine(cfg *config.Config, orch *llm.Orchestrator, o serviceOptions) (*document.Engine, error) {
	policy, err := document.ParseFallbackPolicy(cfg.Generation.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	opts := []document.Option{
		document.WithFallbackPolicy(policy),
		document.WithDateFormat(cfg.Generation.DateFormat),
		document.WithClock(o.now),
		document.WithLogger(o.logger),
		document.WithMetrics(o.metrics),
	}

	if dir := cfg.Generation.AssetsDir; dir != "" {
		resolver, err := assets.NewAssetResolver(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		opts = append(opts, document.WithAssetLoader(resolver))
	}
	if path := cfg.Generation.ExtraCSS; path != "" {
		css, err := os.ReadFile(path) // #nosec G304 -- operator-chosen stylesheet
		if err != nil {
			return nil, fmt.Errorf("%w: reading extra css: %w", ErrInvalidInput, err)
		}
		opts = append(opts, document.WithExtraCSS(string(css)))
	}

	return document.NewEngine(orch, opts...), nil
}

// BackendFactory maps a render.backend name to its RendererFactory.
func BackendFactory(backend string, opts BrowserOptions, logger *slog.Logger) (RendererFactory, error) {
	switch strings.ToLower(backend) {
	case "", "rod":
		return NewRodRenderer(opts, logger), nil
	case "chromedp":
		return NewChromedpRenderer(opts, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// Styles lists the registered document styles.
func (s *Service) Styles() []string {
	return document.StyleNames()
}

// Providers lists the language model backends that have credentials.
func (s *Service) Providers() []llm.ProviderID {
	return s.llm.Providers()
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// request is a GenerateInput with defaults applied and every field checked.
type request struct {
	url         string
	style       document.Style
	kind        document.Kind
	provider    llm.ProviderID
	profilePath string
	outputPath  string
}

func (s *Service) resolve(in GenerateInput) (request, error) {
	req := request{
		url:         strings.TrimSpace(in.URL),
		profilePath: or(in.ProfilePath, s.cfg.Profile.Path),
		outputPath:  in.OutputPath,
	}

	style, err := document.ParseStyle(or(in.Style, s.cfg.Generation.Style))
	if err != nil {
		return req, fmt.Errorf("%w: %w", ErrUnknownStyle, err)
	}
	req.style = style

	kind, err := document.ParseKind(or(in.Kind, s.cfg.Generation.Kind))
	if err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	req.kind = kind

	provider, err := llm.ParseProviderID(or(in.Provider, s.cfg.LLM.Provider))
	if err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !s.llm.Has(provider) {
		return req, fmt.Errorf("%w: %w: %s (set %s)", ErrInvalidInput, llm.ErrProviderNotConfigured, provider, providers.EnvKey(provider))
	}
	req.provider = provider

	if req.profilePath == "" {
		return req, fmt.Errorf("%w: %w", ErrInvalidInput, ErrProfileRequired)
	}
	if req.url == "" {
		return req, fmt.Errorf("%w: job url is required", ErrInvalidInput)
	}
	if err := urlguard.Validate(req.url); err != nil {
		return req, fmt.Errorf("%w: %w", ErrBlockedURL, err)
	}
	return req, nil
}

// Generate produces one document for in. Every error wraps exactly one
// category sentinel; see Category.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (res *Result, err error) {
	requestID := uuid.NewString()
	log := s.logger.With("request_id", requestID)
	start := time.Now()

	var req request
	defer func() {
		if r := recover(); r != nil {
			log.Error("generation panicked", "panic", r, "stack", string(debug.Stack()))
			res, err = nil, fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
		if err != nil && ctx.Err() != nil && !errors.Is(err, ErrCanceled) {
			err = fmt.Errorf("%w: %w", ErrCanceled, err)
		}

		outcome := "ok"
		if err != nil {
			outcome = Category(err)
			log.Warn("generation failed", "category", outcome, "error", err, "duration", time.Since(start))
		}
		s.metrics.Document(string(req.style), string(req.kind), outcome)
	}()

	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	req, err = s.resolve(in)
	if err != nil {
		return nil, err
	}
	log = log.With("style", string(req.style), "kind", string(req.kind), "provider", string(req.provider))
	log.Info("generation started", "url", req.url)

	prof, err := s.profiles.Load(req.profilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheLoadFailure, err)
	}

	page, err := s.fetcher.Fetch(ctx, req.url)
	if err != nil {
		if fetch.IsBlocked(err) {
			return nil, fmt.Errorf("%w: %w", ErrBlockedURL, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	listing, err := s.jobs.Extract(ctx, req.provider, page)
	if err != nil {
		return nil, classifyModelError(err)
	}

	rendered, err := s.engine.Generate(ctx, document.Request{
		RequestID: requestID,
		Profile:   prof,
		Job:       listing,
		Style:     req.style,
		Kind:      req.kind,
		Provider:  req.provider,
	})
	if err != nil {
		return nil, classifyModelError(err)
	}

	artifact, err := s.pdf.Render(ctx, rendered, req.url)
	if err != nil {
		return nil, err
	}

	res = &Result{
		RequestID:        requestID,
		Artifact:         artifact,
		Style:            req.style,
		Kind:             req.kind,
		Provider:         req.provider,
		Role:             listing.Role(),
		Company:          listing.Company(),
		Language:         rendered.Language,
		PartialListing:   listing.Partial(),
		FallbackSections: rendered.FallbackSections,
	}

	if req.outputPath != "" {
		path, err := writeArtifact(req.outputPath, artifact)
		if err != nil {
			return nil, err
		}
		res.OutputPath = path
	}

	res.Duration = time.Since(start)
	log.Info("generation finished",
		"pages", artifact.Pages,
		"bytes", len(artifact.PDF),
		"fallback_sections", len(res.FallbackSections),
		"output", res.OutputPath,
		"duration", res.Duration,
	)
	return res, nil
}

// classifyModelError maps extraction and generation failures onto the
// category sentinels.
func classifyModelError(err error) error {
	switch {
	case errors.Is(err, document.ErrUnknownStyle):
		return fmt.Errorf("%w: %w", ErrUnknownStyle, err)
	case errors.Is(err, document.ErrUnknownKind), errors.Is(err, document.ErrInvalidRequest):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, llm.ErrProvider):
		return fmt.Errorf("%w: %w", ErrProviderError, err)
	case errors.Is(err, job.ErrNoContent):
		return fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	return err
}

func writeArtifact(outputPath string, a *Artifact) (string, error) {
	dir, name := outputTarget(outputPath, a.SuggestedFilename)
	path, err := fileutil.WriteFile(dir, name, a.PDF)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	return path, nil
}

// outputTarget splits outputPath into a directory and file name. Paths that
// end in a separator or name an existing directory get the suggested name.
func outputTarget(outputPath, suggested string) (dir, name string) {
	if strings.HasSuffix(outputPath, "/") || strings.HasSuffix(outputPath, string(os.PathSeparator)) {
		return outputPath, suggested
	}
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		return outputPath, suggested
	}
	return filepath.Dir(outputPath), filepath.Base(outputPath)
}

// Close releases the renderer. Generate fails with ErrServiceClosed
// afterwards.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.pool.Close()
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
