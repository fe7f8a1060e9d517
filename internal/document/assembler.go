package document

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/metrics"
	"github.com/alnah/go-jobcraft/internal/pipeline"
)

// Invoker is the slice of the LLM orchestrator the engine needs.
type Invoker interface {
	Invoke(ctx context.Context, provider llm.ProviderID, prompt string, maxTokens int) (*llm.Result, error)
}

// assembler is shared by every strategy: it fans the model calls of a
// section plan out concurrently and puts the results back in plan order.
type assembler struct {
	llm     Invoker
	conv    pipeline.Fragmenter
	policy  FallbackPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// plan is a strategy's ordered list of sections for one kind.
type plan struct {
	style    Style
	voice    string
	sections []SectionID
	headline bool
}

type slot struct {
	section Section
	err     error
	skip    bool
}

func (a *assembler) assemble(ctx context.Context, pl plan, in SectionInput) ([]Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slots := make([]slot, len(pl.sections))
	var wg sync.WaitGroup

	for i, id := range pl.sections {
		spec := sectionSpecs[id]
		switch {
		case spec.static:
			slots[i].section = Section{ID: id, HTML: headerHTML(in, pl.headline)}
		case !spec.applies(in.Profile):
			slots[i].skip = true
		default:
			wg.Add(1)
			go func(i int, id SectionID) {
				defer wg.Done()
				slots[i].section, slots[i].err = a.generate(ctx, pl, id, in)
			}(i, id)
		}
	}
	wg.Wait()

	// A canceled request never falls back, whatever the sections returned.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := a.logger.With("request_id", in.RequestID, "style", string(pl.style), "kind", string(in.Kind))
	out := make([]Section, 0, len(slots))

	for i, s := range slots {
		if s.skip {
			continue
		}
		if s.err == nil {
			out = append(out, s.section)
			continue
		}

		id := pl.sections[i]
		if !errors.Is(s.err, llm.ErrProvider) || a.policy == FallbackFail {
			return nil, fmt.Errorf("%w: %s: %w", ErrSectionFailed, id, s.err)
		}

		log.Warn("section generation failed, using profile data", "section", string(id), "error", s.err)
		a.metrics.Fallback(string(pl.style), string(id))

		sec, err := a.render(ctx, id, in, fallbackMarkdown(id, in))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: fallback: %w", ErrSectionFailed, id, err)
		}
		sec.Fallback = true
		out = append(out, sec)
	}
	return out, nil
}

func (a *assembler) generate(ctx context.Context, pl plan, id SectionID, in SectionInput) (Section, error) {
	res, err := a.llm.Invoke(ctx, in.Provider, buildPrompt(id, pl.voice, in), sectionSpecs[id].maxTokens)
	if err != nil {
		return Section{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return Section{}, llm.Transient(in.Provider, 0, errors.New("empty section text"))
	}
	return a.render(ctx, id, in, res.Text)
}

func (a *assembler) render(ctx context.Context, id SectionID, in SectionInput, markdown string) (Section, error) {
	fragment, err := a.conv.Fragment(ctx, markdown)
	if err != nil {
		return Section{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<section class="section-%s">`, id)
	if title := phrasesFor(in.Job.Language()).titles[id]; title != "" {
		fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(title))
	}
	b.WriteString(fragment)
	b.WriteString("</section>")
	return Section{ID: id, HTML: b.String()}, nil
}
