package jobcraft

import (
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-jobcraft/internal/document"
	"github.com/alnah/go-jobcraft/internal/job"
	"github.com/alnah/go-jobcraft/internal/llm"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// paperSizes holds portrait width and height in inches.
var paperSizes = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns US Letter portrait with half-inch margins.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid. A nil receiver means
// defaults and is valid.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if _, ok := paperSizes[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// Dimensions returns paper width, height and margin in inches, with
// defaults filled in for a nil receiver.
func (p *PageSettings) Dimensions() (width, height, margin float64) {
	if p == nil {
		p = DefaultPageSettings()
	}
	size, ok := paperSizes[strings.ToLower(p.Size)]
	if !ok {
		size = paperSizes[PageSizeLetter]
	}
	width, height = size[0], size[1]
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		width, height = height, width
	}
	margin = p.Margin
	if margin == 0 {
		margin = DefaultMargin
	}
	return width, height, margin
}

// GenerateInput asks for one document. Empty fields take the configured
// defaults.
type GenerateInput struct {
	URL         string
	Style       string
	Kind        string
	Provider    string
	ProfilePath string

	// OutputPath, when set, is where the PDF is written. A path ending in a
	// separator or naming an existing directory gets the suggested filename.
	OutputPath string
}

// Artifact is a rendered PDF.
type Artifact struct {
	PDF               []byte
	SuggestedFilename string
	Pages             int
}

// Result describes a generated document.
type Result struct {
	RequestID string
	Artifact  *Artifact

	// OutputPath is the written file, empty when nothing was written.
	OutputPath string

	Style    document.Style
	Kind     document.Kind
	Provider llm.ProviderID
	Role     string
	Company  string
	Language job.Language

	// PartialListing is set when the job facts could not be fully extracted.
	PartialListing   bool
	FallbackSections []document.SectionID
	Duration         time.Duration
}
