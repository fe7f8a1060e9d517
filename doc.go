// Package jobcraft generates job-tailored resumes and cover letters as PDF.
//
// # Quick Start
//
// Build a service from configuration and generate one document:
//
//	cfg, _, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := jobcraft.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	res, err := svc.Generate(ctx, jobcraft.GenerateInput{
//	    URL:   "https://example.com/jobs/42",
//	    Style: "modern",
//	    Kind:  "resume",
//	})
//	if err != nil {
//	    log.Fatalf("%s: %v", jobcraft.Category(err), err)
//	}
//	os.WriteFile(res.Artifact.SuggestedFilename, res.Artifact.PDF, 0o644)
//
// # Pipeline
//
//  1. The job URL is checked against the URL guard and fetched with dial-time
//     address checks (internal/fetch).
//  2. A language model extracts role, company, location and description
//     (internal/job through internal/llm).
//  3. The selected style assembles the document, one model call per section,
//     fanned out concurrently (internal/document).
//  4. The single pooled headless Chrome prints the HTML to PDF (RendererPool,
//     PDFStep).
//
// # Errors
//
// Every Generate error wraps exactly one category sentinel. Category maps it
// to a stable name (blocked_url, fetch_failure, provider_error,
// unknown_style, render_failure, cache_load_failure, invalid_input, canceled
// or internal) used by the CLI exit codes and the HTTP status mapping.
//
// # Rendering
//
// RendererPool owns one renderer at a time. It is created on first use,
// checked before each hand-out and recreated after a crash. Two backends
// exist: go-rod (default) and chromedp.
package jobcraft
