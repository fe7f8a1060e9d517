// Package job turns fetched job posting text into a structured Listing.
package job

import "strings"

// Listing holds the facts extracted from one job posting. Fields are
// unexported so a Listing cannot change after extraction.
type Listing struct {
	role        string
	company     string
	location    string
	description string
	sourceURL   string
	language    Language
	partial     bool
}

func (l *Listing) Role() string        { return l.role }
func (l *Listing) Company() string     { return l.company }
func (l *Listing) Location() string    { return l.location }
func (l *Listing) Description() string { return l.description }
func (l *Listing) SourceURL() string   { return l.sourceURL }

// Language is the language of the posting, which documents are written in.
func (l *Listing) Language() Language {
	if l.language == "" {
		return DefaultLanguage
	}
	return l.language
}

// Partial reports whether required facts were missing and filled from the
// page itself.
func (l *Listing) Partial() bool { return l.partial }

// Summary is a one-line description for logs and prompts.
func (l *Listing) Summary() string {
	parts := []string{or(l.role, "unknown role")}
	if l.company != "" {
		parts = append(parts, "at "+l.company)
	}
	if l.location != "" {
		parts = append(parts, "in "+l.location)
	}
	return strings.Join(parts, " ")
}

// NewListing builds a Listing outside of extraction, for callers that already
// know the facts. The language is detected from the description.
func NewListing(role, company, location, description, sourceURL string) *Listing {
	description = strings.TrimSpace(description)
	return &Listing{
		role:        strings.TrimSpace(role),
		company:     strings.TrimSpace(company),
		location:    strings.TrimSpace(location),
		description: description,
		sourceURL:   sourceURL,
		language:    DetectLanguage(description),
	}
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
