package document

import (
	"github.com/alnah/go-jobcraft/internal/job"
	"github.com/alnah/go-jobcraft/internal/llm"
	"github.com/alnah/go-jobcraft/internal/profile"
)

// SectionID names one block of a document.
type SectionID string

const (
	SectionHeader         SectionID = "header"
	SectionSummary        SectionID = "summary"
	SectionExperience     SectionID = "experience"
	SectionEducation      SectionID = "education"
	SectionProjects       SectionID = "projects"
	SectionAchievements   SectionID = "achievements"
	SectionCertifications SectionID = "certifications"
	SectionSkills         SectionID = "skills"
	SectionLanguages      SectionID = "languages"
	SectionBody           SectionID = "body"
	SectionClosing        SectionID = "closing"
)

// Section is one rendered block. HTML is a complete <section> element.
type Section struct {
	ID       SectionID
	HTML     string
	Fallback bool
}

// SectionInput is everything a strategy needs to assemble sections.
type SectionInput struct {
	RequestID string
	Profile   *profile.Profile
	Job       *job.Listing
	Kind      Kind
	Provider  llm.ProviderID
	Date      string
}

// WrapInput is what a strategy wraps into its shell.
type WrapInput struct {
	Sections []Section
	Profile  *profile.Profile
	Job      *job.Listing
	Kind     Kind
	Date     string
}

type sectionSpec struct {
	maxTokens int

	// static sections are always built from profile data, never by a model.
	static bool

	// applies reports whether the profile has data for the section. Sections
	// that do not apply are left out without a model call.
	applies func(p *profile.Profile) bool

	instruction string
}

func always(*profile.Profile) bool { return true }

var sectionSpecs = map[SectionID]sectionSpec{
	SectionHeader: {static: true, applies: always},
	SectionSummary: {
		maxTokens:   300,
		applies:     always,
		instruction: "Write a professional summary of 2 to 3 sentences that connects the candidate's background to this role. Plain paragraph, no list.",
	},
	SectionExperience: {
		maxTokens: 1200,
		applies:   func(p *profile.Profile) bool { return len(p.Experience) > 0 },
		instruction: "For each position write a level-3 heading \"Position, Company\" followed by a line with the period and location in italics, " +
			"then 3 to 5 bullet points rewritten from the responsibilities to emphasise what matters for this role. Keep positions in the given order.",
	},
	SectionEducation: {
		maxTokens:   500,
		applies:     func(p *profile.Profile) bool { return len(p.Education) > 0 },
		instruction: "List each degree as a level-3 heading \"Level in Field, Institution\" followed by the years in italics. Add one line on relevance only when it is obvious.",
	},
	SectionProjects: {
		maxTokens:   700,
		applies:     func(p *profile.Profile) bool { return len(p.Projects) > 0 },
		instruction: "List the projects most relevant to the role as bullet points: bold name, then one sentence. Include the link when given.",
	},
	SectionAchievements: {
		maxTokens:   400,
		applies:     func(p *profile.Profile) bool { return len(p.Achievements) > 0 },
		instruction: "List the achievements as short bullet points, most relevant first.",
	},
	SectionCertifications: {
		maxTokens:   400,
		applies:     func(p *profile.Profile) bool { return len(p.Certifications) > 0 },
		instruction: "List the certifications as short bullet points.",
	},
	SectionSkills: {
		maxTokens:   300,
		applies:     func(p *profile.Profile) bool { return len(p.AllSkills()) > 0 },
		instruction: "Return the candidate's skills as a single bullet list, skills the posting asks for first. Use only skills from the candidate data.",
	},
	SectionLanguages: {
		maxTokens:   200,
		applies:     func(p *profile.Profile) bool { return len(p.Languages) > 0 },
		instruction: "List each language with its proficiency as bullet points.",
	},
	SectionBody: {
		maxTokens: 1200,
		applies:   always,
		instruction: "Write the body of a cover letter in 3 or 4 paragraphs, starting with the greeting \"{greeting}\". " +
			"Explain why the candidate fits this role and company using concrete experience. Do not include a sign-off.",
	},
	SectionClosing: {
		maxTokens:   200,
		applies:     always,
		instruction: "Write a one-paragraph closing for a cover letter that thanks the reader and asks for an interview. Do not include the sign-off or name.",
	},
}
