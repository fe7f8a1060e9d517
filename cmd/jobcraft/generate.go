package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/job"
	"github.com/alnah/go-jobcraft/internal/llm"
)

// runGenerate fetches one job posting and writes the tailored document.
func runGenerate(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseGenerateFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		printGenerateUsage(env.Stderr)
		return fmt.Errorf("%w: generate takes exactly one job URL, got %d", ErrUsage, len(positional))
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if err := mergeGenerateFlags(f, cfg); err != nil {
		return err
	}
	log, err := newLogger(cfg, &f.common, env.Stderr)
	if err != nil {
		return err
	}

	provider := llm.ProviderID(strings.ToLower(strings.TrimSpace(or(f.provider, cfg.LLM.Provider))))

	svc, err := env.NewService(cfg, jobcraft.WithLogger(log), jobcraft.WithGetenv(env.Getenv))
	if err != nil {
		return withHint(fmt.Errorf("starting: %w", err), hintFor(err, provider))
	}
	defer func() { _ = svc.Close() }()

	output := f.output
	if output == "" {
		output = strings.TrimRight(cfg.Output.Dir, `/\`) + string(os.PathSeparator)
	}

	res, err := svc.Generate(ctx, jobcraft.GenerateInput{
		URL:         positional[0],
		Style:       f.style,
		Kind:        f.kind,
		Provider:    f.provider,
		ProfilePath: cfg.Profile.Path,
		OutputPath:  output,
	})
	if err != nil {
		return withHint(fmt.Errorf("%s: %w", jobcraft.Category(err), err), hintFor(err, provider))
	}

	if !f.common.quiet {
		printResult(env, res)
	}
	return nil
}

func printResult(env *Environment, res *jobcraft.Result) {
	w := env.Stdout
	fmt.Fprintf(w, "Wrote %s (%s, %s, %d pages) in %s\n",
		res.OutputPath, res.Style, res.Kind, res.Artifact.Pages, res.Duration.Round(time.Millisecond))
	if res.Role != "" || res.Company != "" {
		fmt.Fprintf(w, "  job: %s at %s\n", or(res.Role, "unknown role"), or(res.Company, "unknown company"))
	}
	if res.Language != "" && res.Language != job.DefaultLanguage {
		fmt.Fprintf(w, "  language: %s\n", res.Language.Name())
	}
	if res.PartialListing {
		fmt.Fprintln(w, "  note: some job details could not be extracted")
	}
	if len(res.FallbackSections) > 0 {
		names := make([]string, len(res.FallbackSections))
		for i, s := range res.FallbackSections {
			names[i] = string(s)
		}
		fmt.Fprintf(w, "  note: written from profile data after provider errors: %s\n", strings.Join(names, ", "))
	}
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
