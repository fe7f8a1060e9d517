package document

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"

	"github.com/alnah/go-jobcraft/internal/assets"
)

// Strategy renders documents in one visual style.
type Strategy interface {
	Style() Style

	// AssembleSections produces the style's sections for in.Kind, in the
	// style's order.
	AssembleSections(ctx context.Context, in SectionInput) ([]Section, error)

	// Wrap places assembled sections into the style's HTML shell.
	Wrap(in WrapInput) (string, error)
}

// Constructor builds a strategy from the engine's shared parts.
type Constructor func(deps strategyDeps) (Strategy, error)

type strategyDeps struct {
	asm    *assembler
	loader assets.AssetLoader
}

// registry maps every supported style to its constructor. It is the single
// place a new style is added.
var registry = map[Style]Constructor{
	StyleClassic: newClassic,
	StyleModern:  newModern,
	StyleSidebar: newSidebar,
}

// Styles lists registered styles, sorted.
func Styles() []Style {
	out := make([]Style, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StyleNames is Styles as strings.
func StyleNames() []string {
	styles := Styles()
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = string(s)
	}
	return out
}

// design is the strategy shared by all built-in styles; they differ in
// section order, tone, sidebar placement and shell.
type design struct {
	style Style
	voice string
	plans map[Kind][]SectionID

	// side holds sections placed in the shell's side column, if it has one.
	side     map[SectionID]bool
	headline bool

	shell *assets.Shell
	asm   *assembler
}

func newDesign(deps strategyDeps, d *design) (Strategy, error) {
	shell, err := assets.LoadShell(deps.loader, string(d.style))
	if err != nil {
		return nil, fmt.Errorf("load %s shell: %w", d.style, err)
	}
	d.shell = shell
	d.asm = deps.asm
	return d, nil
}

func (d *design) Style() Style { return d.style }

func (d *design) AssembleSections(ctx context.Context, in SectionInput) ([]Section, error) {
	sections, ok := d.plans[in.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q for style %s", ErrUnknownKind, in.Kind, d.style)
	}
	return d.asm.assemble(ctx, plan{
		style:    d.style,
		voice:    d.voice,
		sections: sections,
		headline: d.headline,
	}, in)
}

type shellData struct {
	Lang  string
	Title string
	Kind  string
	CSS   template.CSS
	Main  []template.HTML
	Side  []template.HTML
}

func (d *design) Wrap(in WrapInput) (string, error) {
	data := shellData{
		Lang:  string(in.Job.Language()),
		Title: documentTitle(in),
		Kind:  string(in.Kind),
		CSS:   template.CSS(d.shell.CSS), // #nosec G203 -- stylesheet comes from embedded or operator assets
	}

	for _, s := range in.Sections {
		// Section HTML is built from escaped profile data and sanitized
		// goldmark output.
		h := template.HTML(s.HTML) // #nosec G203
		if in.Kind == KindResume && d.side[s.ID] {
			data.Side = append(data.Side, h)
		} else {
			data.Main = append(data.Main, h)
		}
	}
	if in.Kind == KindCoverLetter {
		data.Main = append(data.Main, template.HTML(signOffHTML(in.Profile, in.Job.Language()))) // #nosec G203
	}

	var buf bytes.Buffer
	if err := d.shell.Template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrWrap, d.style, err)
	}
	return buf.String(), nil
}

func documentTitle(in WrapInput) string {
	title := in.Profile.FullName() + " - " + phrasesFor(in.Job.Language()).kinds[in.Kind]
	if c := in.Job.Company(); c != "" {
		title += " - " + c
	}
	return title
}
