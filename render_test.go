package jobcraft

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/alnah/go-jobcraft/internal/document"
	"github.com/alnah/go-jobcraft/internal/logger"
	"github.com/alnah/go-jobcraft/internal/testpdf"
)

func TestSuggestedFilename(t *testing.T) {
	t.Parallel()

	const url = "https://example.com/job/42"
	pattern := regexp.MustCompile(`^[0-9a-f]{10}-resume\.pdf$`)

	got := SuggestedFilename(url, document.KindResume)
	if !pattern.MatchString(got) {
		t.Fatalf("SuggestedFilename() = %q, want 10 hex digits + -resume.pdf", got)
	}
	if again := SuggestedFilename(url, document.KindResume); again != got {
		t.Errorf("not deterministic: %q then %q", got, again)
	}
	if other := SuggestedFilename("https://example.com/job/43", document.KindResume); other == got {
		t.Error("different URLs produced the same name")
	}

	letter := SuggestedFilename(url, document.KindCoverLetter)
	if letter[:10] != got[:10] || letter[10:] != "-cover-letter.pdf" {
		t.Errorf("cover letter name = %q", letter)
	}
	if SuggestedFilename(url, "") != got {
		t.Error("empty kind should default to resume")
	}
}

func TestCountPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		want    int
		wantErr bool
	}{
		{"one page", testpdf.Minimal(1), 1, false},
		{"three pages", testpdf.Minimal(3), 3, false},
		{"empty", nil, 0, true},
		{"not a pdf", []byte("<html>definitely not a pdf, padded out past the trailer window of the reader ...........</html>"), 0, true},
		{"truncated", testpdf.Minimal(1)[:40], 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CountPages(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPDF) {
					t.Fatalf("CountPages() error = %v, want ErrInvalidPDF", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CountPages() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountPages() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// PDFStep
// ---------------------------------------------------------------------------

func newTestStep(ff *fakeFactory) (*PDFStep, *RendererPool) {
	pool := newTestPool(ff)
	return NewPDFStep(pool, nil, logger.Discard()), pool
}

func TestPDFStep_Render(t *testing.T) {
	t.Parallel()

	step, pool := newTestStep(&fakeFactory{})
	defer pool.Close()

	doc := &document.Rendered{HTML: "<html><body>x</body></html>", Kind: document.KindResume}
	a, err := step.Render(context.Background(), doc, "https://example.com/job/42")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(a.PDF) == 0 || a.Pages != 1 {
		t.Errorf("artifact = %d bytes, %d pages", len(a.PDF), a.Pages)
	}
	if a.SuggestedFilename != SuggestedFilename("https://example.com/job/42", document.KindResume) {
		t.Errorf("SuggestedFilename = %q", a.SuggestedFilename)
	}
}

func TestPDFStep_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(*fakeRenderer)
		doc       *document.Rendered
		wantErr   error
	}{
		{"nil document", nil, nil, ErrInvalidInput},
		{"empty html", nil, &document.Rendered{}, ErrInvalidInput},
		{"renderer failure", func(r *fakeRenderer) { r.failErr = ErrPDFGeneration }, &document.Rendered{HTML: "<p>x</p>"}, ErrPDFGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			step, pool := newTestStep(&fakeFactory{configure: tt.configure})
			defer pool.Close()

			_, err := step.Render(context.Background(), tt.doc, "https://example.com/job/1")
			if !errors.Is(err, ErrRenderFailure) {
				t.Fatalf("error = %v, want ErrRenderFailure", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type garbageRenderer struct{ fakeRenderer }

func (g *garbageRenderer) Render(context.Context, string, *PageSettings) ([]byte, error) {
	return []byte("%PDF-1.4\nnot really"), nil
}

func TestPDFStep_RejectsUnreadableOutput(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(func(context.Context) (Renderer, error) { return &garbageRenderer{}, nil },
		WithPoolLogger(logger.Discard()))
	defer pool.Close()
	step := NewPDFStep(pool, nil, logger.Discard())

	_, err := step.Render(context.Background(), &document.Rendered{HTML: "<p>x</p>"}, "https://example.com/job/1")
	if !errors.Is(err, ErrRenderFailure) || !errors.Is(err, ErrInvalidPDF) {
		t.Errorf("error = %v, want ErrRenderFailure wrapping ErrInvalidPDF", err)
	}
}

func TestPDFStep_CanceledContext(t *testing.T) {
	t.Parallel()

	step, pool := newTestStep(&fakeFactory{})
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := step.Render(ctx, &document.Rendered{HTML: "<p>x</p>"}, "https://example.com/job/1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrRenderFailure) {
		t.Error("cancellation should not be reported as a render failure")
	}
}
