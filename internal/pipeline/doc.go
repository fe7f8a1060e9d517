// Package pipeline turns model-written Markdown into HTML fragments that are
// safe to place inside a document shell.
//
// Stages:
//   - Markdown cleanup (line endings, wrapping code fences, highlight syntax)
//   - Markdown to HTML conversion via Goldmark, fragment output only
//   - Fragment sanitizing (external images and script-capable links removed)
//   - CSS injection for operator-supplied stylesheets
//
// Layout, page size and PDF output belong to the root jobcraft package.
package pipeline
