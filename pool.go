package jobcraft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/go-jobcraft/internal/metrics"
)

// Pool timeouts.
const (
	// DefaultRenderTimeout bounds a single HTML to PDF render.
	DefaultRenderTimeout = 30 * time.Second

	// DefaultCloseTimeout bounds how long Close waits for a held handle.
	DefaultCloseTimeout = 30 * time.Second
)

// Renderer turns a complete HTML document into PDF bytes. Implementations
// are not safe for concurrent use; the pool serializes access.
type Renderer interface {
	Render(ctx context.Context, html string, page *PageSettings) ([]byte, error)

	// Alive reports whether the renderer can still serve requests. A
	// renderer that has not started its browser yet is alive.
	Alive(ctx context.Context) bool

	Close() error
}

// RendererFactory creates a renderer. It is called lazily, once at first
// acquire and again whenever the live renderer died.
type RendererFactory func(ctx context.Context) (Renderer, error)

// RendererPool owns the single live renderer. Callers take turns through a
// capacity-1 semaphore, so at most one render runs at a time while fetch and
// model calls elsewhere stay fully parallel.
type RendererPool struct {
	factory      RendererFactory
	timeout      time.Duration
	closeTimeout time.Duration
	logger       *slog.Logger
	metrics *metrics.Metrics

	sem chan struct{}

	mu       sync.Mutex
	renderer Renderer
	crashed  bool
	closed   bool
}

// PoolOption configures a RendererPool.
type PoolOption func(*RendererPool)

// WithRenderTimeout bounds each Render call.
func WithRenderTimeout(d time.Duration) PoolOption {
	return func(p *RendererPool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithCloseTimeout bounds how long Close waits for a handle still in use.
// Past it, the renderer is closed by that handle's Release instead.
func WithCloseTimeout(d time.Duration) PoolOption {
	return func(p *RendererPool) {
		if d > 0 {
			p.closeTimeout = d
		}
	}
}

// WithPoolLogger sets the logger for renderer lifecycle events.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *RendererPool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPoolMetrics records renderer launches and render durations in m.
func WithPoolMetrics(m *metrics.Metrics) PoolOption {
	return func(p *RendererPool) {
		p.metrics = m
	}
}

// NewRendererPool creates a pool. No renderer exists until the first
// Acquire.
func NewRendererPool(factory RendererFactory, opts ...PoolOption) *RendererPool {
	p := &RendererPool{
		factory:      factory,
		timeout:      DefaultRenderTimeout,
		closeTimeout: DefaultCloseTimeout,
		logger:       slog.Default(),
		sem:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire blocks until the renderer is free or ctx is done. The handle must
// be released; With does that on every exit path.
func (p *RendererPool) Acquire(ctx context.Context) (*RendererHandle, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Both cases may have been ready; a dead context never gets the handle.
	if err := ctx.Err(); err != nil {
		<-p.sem
		return nil, err
	}

	r, err := p.live(ctx)
	if err != nil {
		<-p.sem
		return nil, err
	}
	return &RendererHandle{pool: p, renderer: r}, nil
}

// live returns the current renderer, replacing it first if it crashed or
// reports itself dead. Callers hold the semaphore.
func (p *RendererPool) live(ctx context.Context) (Renderer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	if p.renderer != nil && (p.crashed || !p.renderer.Alive(ctx)) {
		p.logger.Warn("replacing dead renderer", "crashed", p.crashed)
		if err := p.renderer.Close(); err != nil {
			p.logger.Debug("closing dead renderer", "error", err)
		}
		p.renderer = nil
		p.crashed = false
	}

	if p.renderer == nil {
		r, err := p.factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating renderer: %w", err)
		}
		p.renderer = r
		p.metrics.RendererCreated()
		p.logger.Debug("renderer created")
	}
	return p.renderer, nil
}

func (p *RendererPool) markCrashed(r Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer == r {
		p.crashed = true
	}
}

// Release returns h to the pool. Releasing twice is a no-op.
func (p *RendererPool) Release(h *RendererHandle) {
	if h != nil {
		h.Release()
	}
}

// With acquires a handle, runs fn and releases the handle even if fn panics.
func (p *RendererPool) With(ctx context.Context, fn func(*RendererHandle) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h)
}

// Close shuts the live renderer down. Later acquires fail with
// ErrPoolClosed. A renderer still held by a handle is never closed under it:
// Close waits up to the close timeout for the handle, and if it is still
// held then, the handle's Release closes the renderer.
func (p *RendererPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	timer := time.NewTimer(p.closeTimeout)
	defer timer.Stop()

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
		return p.closeRenderer()
	case <-timer.C:
		p.logger.Warn("renderer still in use at close; closing on release", "waited", p.closeTimeout)
		return nil
	}
}

// closeRenderer closes the renderer once the pool is closed. Callers hold
// the semaphore.
func (p *RendererPool) closeRenderer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed || p.renderer == nil {
		return nil
	}
	err := p.renderer.Close()
	p.renderer = nil
	return err
}

// RendererHandle is exclusive access to the pool's renderer until Release.
type RendererHandle struct {
	pool     *RendererPool
	renderer Renderer
	once     sync.Once

	mu       sync.Mutex
	released bool
}

// Render prints html to PDF within the pool's render timeout. A crash or a
// timeout marks the renderer for replacement.
func (h *RendererHandle) Render(ctx context.Context, html string, page *PageSettings) ([]byte, error) {
	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	if released {
		return nil, ErrHandleReleased
	}

	rctx, cancel := context.WithTimeout(ctx, h.pool.timeout)
	defer cancel()

	start := time.Now()
	out, err := h.renderer.Render(rctx, html, page)
	h.pool.metrics.RenderDuration(time.Since(start))

	if err != nil {
		timedOut := errors.Is(rctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		if errors.Is(err, ErrRendererCrashed) || timedOut {
			h.pool.markCrashed(h.renderer)
		}
		if timedOut {
			return nil, fmt.Errorf("render timed out after %s: %w", h.pool.timeout, err)
		}
		return nil, err
	}
	return out, nil
}

// Release returns the handle to its pool. It is safe to call more than once.
func (h *RendererHandle) Release() {
	h.once.Do(func() {
		h.mu.Lock()
		h.released = true
		h.mu.Unlock()
		if err := h.pool.closeRenderer(); err != nil {
			h.pool.logger.Debug("closing renderer on release", "error", err)
		}
		<-h.pool.sem
	})
}
