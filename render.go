package jobcraft

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G501 -- filename derivation, not security
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"github.com/alnah/go-jobcraft/internal/document"
)

// PDFStep prints rendered documents through the renderer pool.
type PDFStep struct {
	pool   *RendererPool
	page   *PageSettings
	logger *slog.Logger
}

// NewPDFStep creates a PDFStep. A nil page uses DefaultPageSettings.
func NewPDFStep(pool *RendererPool, page *PageSettings, logger *slog.Logger) *PDFStep {
	if page == nil {
		page = DefaultPageSettings()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFStep{pool: pool, page: page, logger: logger}
}

// Render prints doc and checks the result is a readable PDF. Failures wrap
// ErrRenderFailure; a canceled ctx is returned as is.
func (s *PDFStep) Render(ctx context.Context, doc *document.Rendered, sourceURL string) (*Artifact, error) {
	if doc == nil || doc.HTML == "" {
		return nil, fmt.Errorf("%w: %w: empty document", ErrRenderFailure, ErrInvalidInput)
	}

	var data []byte
	err := s.pool.With(ctx, func(h *RendererHandle) error {
		var err error
		data, err = h.Render(ctx, doc.HTML, s.page)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}

	pages, err := CountPages(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}

	a := &Artifact{
		PDF:               data,
		SuggestedFilename: SuggestedFilename(sourceURL, doc.Kind),
		Pages:             pages,
	}
	s.logger.Debug("pdf rendered", "bytes", len(data), "pages", pages, "filename", a.SuggestedFilename)
	return a, nil
}

// CountPages parses data as a PDF and returns its page count. Zero pages is
// an error.
func CountPages(data []byte) (n int, err error) {
	// The parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	n = r.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return n, nil
}

// SuggestedFilename derives a stable name from the job URL: the first ten
// hex digits of its MD5 plus the document kind, e.g.
// "3f2a9c0b1d-resume.pdf".
func SuggestedFilename(sourceURL string, kind document.Kind) string {
	sum := md5.Sum([]byte(sourceURL)) // #nosec G401 -- not used for security
	if kind == "" {
		kind = document.KindResume
	}
	return hex.EncodeToString(sum[:])[:10] + "-" + string(kind) + ".pdf"
}
