package jobcraft

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var _ Renderer = (*chromedpRenderer)(nil)

// chromedpRenderer prints through chromedp. One browser is allocated on first
// render; each render opens and closes its own tab.
type chromedpRenderer struct {
	opts   BrowserOptions
	logger *slog.Logger

	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewChromedpRenderer returns a RendererFactory backed by chromedp.
func NewChromedpRenderer(opts BrowserOptions, logger *slog.Logger) RendererFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(context.Context) (Renderer, error) {
		return &chromedpRenderer{opts: opts.resolve(), logger: logger}, nil
	}
}

func (r *chromedpRenderer) ensureBrowser() error {
	if r.browserCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if r.opts.Bin != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.Bin))
	}

	// The browser outlives any single request, so it hangs off Background.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browserCtx = browserCtx
	r.cancelBrowser = cancelBrowser
	r.cancelAlloc = cancelAlloc
	r.logger.Debug("browser launched", "backend", "chromedp")
	return nil
}

func (r *chromedpRenderer) Alive(context.Context) bool {
	if r.browserCtx == nil {
		return true
	}
	return r.browserCtx.Err() == nil
}

func (r *chromedpRenderer) Close() error {
	if r.browserCtx == nil {
		return nil
	}
	r.cancelBrowser()
	r.cancelAlloc()
	r.browserCtx = nil
	return nil
}

func (r *chromedpRenderer) Render(ctx context.Context, html string, settings *PageSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}
	if err := r.browserCtx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRendererCrashed, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	width, height, margin := settings.Dimensions()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			if err := page.SetDocumentContent(tree.Frame.ID, html).Do(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrPageLoad, err)
			}
			return nil
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if r.browserCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrRendererCrashed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}
