// Package document turns a resume profile and a job listing into a styled
// HTML document.
//
// Each visual style is a Strategy registered in a table keyed by Style. A
// strategy declares which sections it renders, in which order, and how the
// finished sections are wrapped into its HTML shell. Section content is
// written by a language model, one call per section, all sections of a
// document in flight at once. When a call fails the engine either renders
// the section from profile data alone or fails the document, depending on
// its FallbackPolicy.
package document
