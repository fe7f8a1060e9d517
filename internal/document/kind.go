package document

import (
	"fmt"
	"strings"
)

// Style identifies a registered visual strategy.
type Style string

const (
	StyleClassic Style = "classic"
	StyleModern  Style = "modern"
	StyleSidebar Style = "sidebar"
)

// DefaultStyle is used when a request names none.
const DefaultStyle = StyleClassic

// ParseStyle normalizes s and checks it against the registration table.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[st]; !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnknownStyle, s, strings.Join(StyleNames(), ", "))
	}
	return st, nil
}

// Kind is the type of document produced.
type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover-letter"
)

// Kinds lists supported document kinds.
func Kinds() []Kind {
	return []Kind{KindResume, KindCoverLetter}
}

// ParseKind accepts "resume" and "cover-letter" (also "cover_letter" and
// "coverletter").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume", "cv":
		return KindResume, nil
	case "cover-letter", "cover_letter", "coverletter", "letter":
		return KindCoverLetter, nil
	}
	return "", fmt.Errorf("%w: %q (available: resume, cover-letter)", ErrUnknownKind, s)
}

// Label is the human title of the kind.
func (k Kind) Label() string {
	if k == KindCoverLetter {
		return "Cover Letter"
	}
	return "Resume"
}

// FallbackPolicy decides what happens when a section's model call fails.
type FallbackPolicy string

const (
	// FallbackDeterministic renders the failed section from profile data.
	FallbackDeterministic FallbackPolicy = "deterministic"

	// FallbackFail fails the whole document with ErrSectionFailed.
	FallbackFail FallbackPolicy = "fail"
)

// ParseFallbackPolicy accepts "deterministic" and "fail". Empty means
// FallbackDeterministic.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FallbackDeterministic, FallbackFail:
		return p, nil
	case "":
		return FallbackDeterministic, nil
	}
	return "", fmt.Errorf("invalid fallback policy %q (available: deterministic, fail)", s)
}
