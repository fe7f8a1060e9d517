package pipeline

import (
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters so they
// pass through Goldmark unchanged without WithUnsafe.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.+?)==`)
	outerFence         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n(.*?)\\n?```$")
)

// PrepareMarkdown normalizes model output before conversion: line endings,
// a single code fence wrapping the whole answer, runs of blank lines and
// ==highlight== markers.
func PrepareMarkdown(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")
	content = strings.TrimSpace(content)
	content = unwrapFence(content)
	content = multipleBlankLines.ReplaceAllString(content, "\n\n")
	content = highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
	return content
}

// unwrapFence removes a fence around the entire text. Models often answer
// with ```markdown ... ``` even when asked not to.
func unwrapFence(content string) string {
	m := outerFence.FindStringSubmatch(content)
	if m == nil {
		return content
	}
	return strings.TrimSpace(m[1])
}

// ConvertMarkPlaceholders turns placeholder markers into <mark> tags after
// Goldmark has run.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
