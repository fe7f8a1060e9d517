package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-jobcraft/internal/fetch"
	"github.com/alnah/go-jobcraft/internal/llm"
)

// ErrNoContent is returned when the fetched page has no usable text.
var ErrNoContent = errors.New("job page has no readable content")

const (
	extractMaxTokens    = 1200
	maxDescriptionRunes = 4000
	maxPromptPageRunes  = 12000
)

// Invoker is the slice of the LLM orchestrator the extractor needs.
type Invoker interface {
	Invoke(ctx context.Context, provider llm.ProviderID, prompt string, maxTokens int) (*llm.Result, error)
}

// Extractor asks a language model for the structured facts of a posting.
type Extractor struct {
	llm    Invoker
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger uses slog.Default.
func NewExtractor(inv Invoker, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{llm: inv, logger: logger}
}

type extracted struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Extract makes one LLM call. Provider failures are returned unchanged
// (*llm.ProviderError). Output that cannot be parsed, or that misses the role,
// degrades to a partial Listing built from the page title and text.
func (e *Extractor) Extract(ctx context.Context, provider llm.ProviderID, page *fetch.Page) (*Listing, error) {
	if page == nil || strings.TrimSpace(page.Text) == "" {
		return nil, ErrNoContent
	}

	res, err := e.llm.Invoke(ctx, provider, extractionPrompt(page), extractMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("extract job facts: %w", err)
	}

	facts, perr := parseExtraction(res.Text)
	if perr != nil {
		e.logger.Warn("job extraction output unparseable, using page text",
			"url", page.URL, "error", perr)
		facts = extracted{}
	}

	listing := &Listing{
		role:        clean(facts.Role),
		company:     clean(facts.Company),
		location:    clean(facts.Location),
		description: truncate(strings.TrimSpace(facts.Description), maxDescriptionRunes),
		sourceURL:   page.URL,
		language:    postingLanguage(facts.Language, page.Text),
	}

	if listing.role == "" {
		listing.role = clean(page.Title)
		listing.partial = true
	}
	if listing.description == "" {
		listing.description = truncate(strings.TrimSpace(page.Text), maxDescriptionRunes)
		listing.partial = true
	}
	if listing.company == "" {
		listing.partial = true
	}

	if listing.partial {
		e.logger.Warn("job listing incomplete",
			"url", page.URL,
			"role", listing.role != "",
			"company", listing.company != "",
			"description", listing.description != "",
		)
	}
	e.logger.Info("job extracted", "url", page.URL, "summary", listing.Summary(), "language", string(listing.language))
	return listing, nil
}

func extractionPrompt(page *fetch.Page) string {
	var b strings.Builder
	b.WriteString(`You extract facts from job postings.
Return ONLY a JSON object with exactly these string fields:
{"role": "...", "company": "...", "location": "...", "description": "...", "language": "..."}

Rules:
- "role" is the job title as written in the posting.
- "company" is the hiring company, not the job board.
- "location" is a city, region, country or "Remote". Use "" if absent.
- "description" summarizes responsibilities and requirements in at most 8 sentences, in the language of the posting.
- "language" is the ISO 639-1 code of the language the posting is written in, for example "en" or "sv".
- Use "" for anything not stated. Do not invent facts.

`)
	if page.Title != "" {
		fmt.Fprintf(&b, "PAGE TITLE: %s\n", page.Title)
	}
	fmt.Fprintf(&b, "PAGE URL: %s\n\nJOB POSTING:\n%s\n", page.URL, truncate(page.Text, maxPromptPageRunes))
	return b.String()
}

// postingLanguage trusts the model's answer when it names a supported
// language and otherwise detects it from the page.
func postingLanguage(reported, pageText string) Language {
	if l, ok := ParseLanguage(reported); ok {
		return l
	}
	return DetectLanguage(pageText)
}

// parseExtraction accepts bare JSON, fenced JSON or JSON surrounded by prose.
func parseExtraction(text string) (extracted, error) {
	var out extracted

	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return out, errors.New("no JSON object in output")
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("decode extraction: %w", err)
	}
	return out, nil
}

func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	switch strings.ToLower(s) {
	case "n/a", "unknown", "none", "null", "not specified":
		return ""
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
