package document

import (
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-jobcraft/internal/job"
	"github.com/alnah/go-jobcraft/internal/profile"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`, "=", `\=`,
)

func esc(s string) string { return mdEscaper.Replace(strings.TrimSpace(s)) }

// fallbackMarkdown writes a section from profile data alone.
func fallbackMarkdown(id SectionID, in SectionInput) string {
	p := in.Profile
	ph := phrasesFor(in.Job.Language())
	var b strings.Builder

	switch id {
	case SectionSummary:
		if p.Summary != "" {
			b.WriteString(esc(p.Summary))
			break
		}
		fmt.Fprintf(&b, "%s", esc(p.FullName()))
		if len(p.Experience) > 0 {
			fmt.Fprintf(&b, ph.summaryRole, esc(p.Experience[0].Position), esc(p.Experience[0].Company))
		}
		if role := in.Job.Role(); role != "" {
			fmt.Fprintf(&b, ph.summaryApplying, esc(role))
		}
		b.WriteString(".")

	case SectionExperience:
		for _, e := range p.Experience {
			fmt.Fprintf(&b, "### %s, %s\n\n", esc(e.Position), esc(e.Company))
			if meta := joinNonEmpty(" · ", esc(e.Period), esc(e.Location)); meta != "" {
				fmt.Fprintf(&b, "*%s*\n\n", meta)
			}
			for _, r := range e.Responsibilities {
				fmt.Fprintf(&b, "- %s\n", esc(r))
			}
			b.WriteString("\n")
		}

	case SectionEducation:
		for _, e := range p.Education {
			fmt.Fprintf(&b, "### %s\n\n", joinNonEmpty(", ", joinNonEmpty(" in ", esc(e.Level), esc(e.FieldOfStudy)), esc(e.Institution)))
			if years := joinNonEmpty(" - ", esc(e.StartDate), esc(e.Completion)); years != "" {
				fmt.Fprintf(&b, "*%s*\n\n", years)
			}
		}

	case SectionProjects:
		for _, pr := range p.Projects {
			fmt.Fprintf(&b, "- **%s**: %s", esc(pr.Name), esc(pr.Description))
			if pr.Link != "" {
				fmt.Fprintf(&b, " (%s)", esc(pr.Link))
			}
			b.WriteString("\n")
		}

	case SectionAchievements:
		for _, a := range p.Achievements {
			fmt.Fprintf(&b, "- **%s**: %s\n", esc(a.Name), esc(a.Description))
		}

	case SectionCertifications:
		for _, c := range p.Certifications {
			fmt.Fprintf(&b, "- **%s**: %s\n", esc(c.Name), esc(c.Description))
		}

	case SectionSkills:
		for _, s := range p.AllSkills() {
			fmt.Fprintf(&b, "- %s\n", esc(s))
		}

	case SectionLanguages:
		for _, l := range p.Languages {
			fmt.Fprintf(&b, "- %s\n", joinNonEmpty(": ", esc(l.Language), esc(l.Proficiency)))
		}

	case SectionBody:
		b.WriteString(ph.greeting + "\n\n")
		if role := in.Job.Role(); role != "" {
			fmt.Fprintf(&b, ph.applyFor, esc(role))
		} else {
			b.WriteString(ph.applyUnnamed)
		}
		if c := in.Job.Company(); c != "" {
			fmt.Fprintf(&b, ph.atCompany, esc(c))
		}
		b.WriteString(".")
		if len(p.Experience) > 0 {
			e := p.Experience[0]
			fmt.Fprintf(&b, ph.roleAt, esc(e.Position), esc(e.Company))
		}
		if skills := p.AllSkills(); len(skills) > 0 {
			if len(skills) > 5 {
				skills = skills[:5]
			}
			for i := range skills {
				skills[i] = esc(skills[i])
			}
			b.WriteString("\n\n")
			fmt.Fprintf(&b, ph.background, strings.Join(skills, ", "))
		}

	case SectionClosing:
		b.WriteString(ph.closing)
	}

	return b.String()
}

// headerHTML builds the contact header. It never involves a model so that
// names and contact details are exactly what the profile says.
func headerHTML(in SectionInput, headline bool) string {
	p := in.Profile
	var b strings.Builder

	b.WriteString(`<section class="section-header">`)
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(p.FullName()))
	if headline && in.Job.Role() != "" {
		fmt.Fprintf(&b, `<p class="headline">%s</p>`, html.EscapeString(in.Job.Role()))
	}

	var contact []string
	for _, v := range []string{p.PersonalInfo.Email, p.Phone(), p.Location(), p.PersonalInfo.LinkedIn, p.PersonalInfo.GitHub, p.PersonalInfo.Website} {
		if v = strings.TrimSpace(v); v != "" {
			contact = append(contact, "<span>"+html.EscapeString(v)+"</span>")
		}
	}
	if len(contact) > 0 {
		fmt.Fprintf(&b, `<p class="contact">%s</p>`, strings.Join(contact, ""))
	}

	if in.Kind == KindCoverLetter {
		if in.Date != "" {
			fmt.Fprintf(&b, `<p class="date">%s</p>`, html.EscapeString(in.Date))
		}
		if c := in.Job.Company(); c != "" {
			fmt.Fprintf(&b, `<p class="recipient">%s</p>`, html.EscapeString(c))
		}
	}
	b.WriteString("</section>")
	return b.String()
}

// signOffHTML ends a cover letter.
func signOffHTML(p *profile.Profile, lang job.Language) string {
	return fmt.Sprintf(`<section class="section-signoff"><p>%s</p><p class="signature">%s</p></section>`,
		html.EscapeString(phrasesFor(lang).signOff), html.EscapeString(p.FullName()))
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
