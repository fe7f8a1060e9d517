package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-jobcraft/internal/profile"
)

const maxJobDescriptionRunes = 4000

// buildPrompt assembles the model prompt for one section. voice describes
// the tone of the style.
func buildPrompt(id SectionID, voice string, in SectionInput) string {
	spec := sectionSpecs[id]
	var b strings.Builder

	fmt.Fprintf(&b, "You are writing the %s section of a %s for %s.\n", id, strings.ToLower(in.Kind.Label()), in.Profile.FullName())
	fmt.Fprintf(&b, "Tone: %s.\n", voice)
	lang := in.Job.Language()
	fmt.Fprintf(&b, "Write in %s (%s), the language of the job posting.\n", lang.Name(), lang)
	b.WriteString("Answer in Markdown without a section heading and without any preamble. ")
	b.WriteString("Use only facts from the candidate data; never invent employers, dates, degrees or numbers.\n\n")

	b.WriteString("JOB POSTING\n")
	fmt.Fprintf(&b, "Role: %s\n", orUnknown(in.Job.Role()))
	fmt.Fprintf(&b, "Company: %s\n", orUnknown(in.Job.Company()))
	if loc := in.Job.Location(); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if desc := in.Job.Description(); desc != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", truncateRunes(desc, maxJobDescriptionRunes))
	}

	b.WriteString("\nCANDIDATE DATA\n")
	b.WriteString(candidateData(id, in.Profile))

	b.WriteString("\nTASK\n")
	b.WriteString(strings.ReplaceAll(spec.instruction, "{greeting}", phrasesFor(lang).greeting))
	b.WriteString("\n")
	return b.String()
}

// candidateData renders the slice of the profile a section draws on.
func candidateData(id SectionID, p *profile.Profile) string {
	var b strings.Builder
	switch id {
	case SectionExperience:
		writeExperience(&b, p)
	case SectionEducation:
		writeEducation(&b, p)
	case SectionProjects:
		for _, pr := range p.Projects {
			fmt.Fprintf(&b, "- %s: %s", pr.Name, pr.Description)
			if pr.Link != "" {
				fmt.Fprintf(&b, " (%s)", pr.Link)
			}
			b.WriteString("\n")
		}
	case SectionAchievements:
		for _, a := range p.Achievements {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
		}
	case SectionCertifications:
		for _, c := range p.Certifications {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
		}
	case SectionSkills:
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.AllSkills(), ", "))
	case SectionLanguages:
		for _, l := range p.Languages {
			fmt.Fprintf(&b, "- %s: %s\n", l.Language, l.Proficiency)
		}
	default:
		// Summary and letter sections see the whole career at a glance.
		if p.Summary != "" {
			fmt.Fprintf(&b, "Own summary: %s\n", p.Summary)
		}
		writeExperience(&b, p)
		writeEducation(&b, p)
		if skills := p.AllSkills(); len(skills) > 0 {
			fmt.Fprintf(&b, "Skills: %s\n", strings.Join(skills, ", "))
		}
		if len(p.Interests) > 0 {
			fmt.Fprintf(&b, "Interests: %s\n", strings.Join(p.Interests, ", "))
		}
	}
	return b.String()
}

func writeExperience(b *strings.Builder, p *profile.Profile) {
	for _, e := range p.Experience {
		fmt.Fprintf(b, "- %s at %s (%s", e.Position, e.Company, e.Period)
		if e.Location != "" {
			fmt.Fprintf(b, ", %s", e.Location)
		}
		b.WriteString(")\n")
		for _, r := range e.Responsibilities {
			fmt.Fprintf(b, "  * %s\n", r)
		}
		if len(e.Skills) > 0 {
			fmt.Fprintf(b, "  skills: %s\n", strings.Join(e.Skills, ", "))
		}
	}
}

func writeEducation(b *strings.Builder, p *profile.Profile) {
	for _, e := range p.Education {
		fmt.Fprintf(b, "- %s in %s, %s (%s - %s)", e.Level, e.FieldOfStudy, e.Institution, e.StartDate, e.Completion)
		if e.Grade != "" {
			fmt.Fprintf(b, ", grade %s", e.Grade)
		}
		b.WriteString("\n")
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not stated"
	}
	return s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
