package jobcraft

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-jobcraft/internal/process"
)

var _ Renderer = (*rodRenderer)(nil)

// Bounds on browser calls made outside a render.
const (
	aliveTimeout        = 5 * time.Second
	browserCloseTimeout = 10 * time.Second
)

// BrowserOptions locate and launch Chrome for either backend.
type BrowserOptions struct {
	// Bin is the Chrome binary. Empty uses ROD_BROWSER_BIN, then the
	// backend's own discovery (rod downloads Chromium on first run).
	Bin       string
	NoSandbox bool
}

// resolve fills Bin and NoSandbox from the environment the way CI images and
// containers expect.
func (o BrowserOptions) resolve() BrowserOptions {
	if o.Bin == "" {
		o.Bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || o.Bin != "" {
		o.NoSandbox = true
	}
	return o
}

// rodRenderer prints through go-rod. The browser starts on first render.
type rodRenderer struct {
	opts     BrowserOptions
	logger   *slog.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser

	aliveTimeout time.Duration
}

// NewRodRenderer returns a RendererFactory backed by go-rod.
func NewRodRenderer(opts BrowserOptions, logger *slog.Logger) RendererFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(context.Context) (Renderer, error) {
		return &rodRenderer{opts: opts.resolve(), logger: logger, aliveTimeout: aliveTimeout}, nil
	}
}

func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true)
	if r.opts.Bin != "" {
		l = l.Bin(r.opts.Bin)
	}
	if r.opts.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	r.logger.Debug("browser launched", "backend", "rod", "pid", l.PID())
	return nil
}

// Alive pings the browser. A browser that does not answer within
// aliveTimeout counts as dead.
func (r *rodRenderer) Alive(ctx context.Context) bool {
	if r.browser == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, r.aliveTimeout)
	defer cancel()
	_, err := proto.BrowserGetVersion{}.Call(r.browser.Context(ctx))
	return err == nil
}

// Close shuts the browser down and kills any helper processes it left.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		ctx, cancel := context.WithTimeout(context.Background(), browserCloseTimeout)
		err = r.browser.Context(ctx).Close()
		cancel()
		r.browser = nil
	}
	if r.launcher != nil {
		process.KillProcessGroup(r.launcher.PID())
		r.launcher.Kill()
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

func (r *rodRenderer) Render(ctx context.Context, html string, page *PageSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	p, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		// Failing to open a tab means the browser is gone.
		return nil, fmt.Errorf("%w: %w: %v", ErrRendererCrashed, ErrPageCreate, err)
	}
	defer func() { _ = p.Close() }()
	p = p.Context(ctx)

	timeout := DefaultRenderTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	// The document is sanitized and self-contained; it never needs a file
	// URL or network access.
	if err := p.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := p.PDF(buildPrintOptions(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

func buildPrintOptions(page *PageSettings) *proto.PagePrintToPDF {
	width, height, margin := page.Dimensions()
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
