package document

import "github.com/alnah/go-jobcraft/internal/job"

// phrases is the fixed wording of a document in one language. Model-written
// sections are asked for the same language in their prompt.
type phrases struct {
	titles map[SectionID]string
	kinds  map[Kind]string

	greeting string
	signOff  string

	applyFor        string // role
	applyUnnamed    string
	atCompany       string // company
	roleAt          string // position, company
	background      string // skills
	closing         string
	summaryRole     string // position, company
	summaryApplying string // role
}

var catalog = map[job.Language]*phrases{
	job.English: {
		titles: map[SectionID]string{
			SectionSummary:        "Summary",
			SectionExperience:     "Experience",
			SectionEducation:      "Education",
			SectionProjects:       "Projects",
			SectionAchievements:   "Achievements",
			SectionCertifications: "Certifications",
			SectionSkills:         "Skills",
			SectionLanguages:      "Languages",
		},
		kinds:           map[Kind]string{KindResume: "Resume", KindCoverLetter: "Cover Letter"},
		greeting:        "Dear Hiring Manager,",
		signOff:         "Sincerely,",
		applyFor:        "I am writing to apply for the %s position",
		applyUnnamed:    "I am writing to apply for the advertised position",
		atCompany:       " at %s",
		roleAt:          " In my role as %s at %s I have built the experience this position calls for.",
		background:      "My background includes %s.",
		closing:         "Thank you for considering my application. I would welcome the opportunity to discuss how I can contribute to your team.",
		summaryRole:     ", %s with experience at %s",
		summaryApplying: ", applying for the %s position",
	},
	job.Swedish: {
		titles: map[SectionID]string{
			SectionSummary:        "Sammanfattning",
			SectionExperience:     "Arbetslivserfarenhet",
			SectionEducation:      "Utbildning",
			SectionProjects:       "Projekt",
			SectionAchievements:   "Prestationer",
			SectionCertifications: "Certifieringar",
			SectionSkills:         "Kompetenser",
			SectionLanguages:      "Språk",
		},
		kinds:           map[Kind]string{KindResume: "CV", KindCoverLetter: "Personligt brev"},
		greeting:        "Hej,",
		signOff:         "Med vänliga hälsningar,",
		applyFor:        "Jag söker härmed tjänsten som %s",
		applyUnnamed:    "Jag söker härmed den utannonserade tjänsten",
		atCompany:       " hos %s",
		roleAt:          " I min roll som %s på %s har jag byggt upp den erfarenhet som tjänsten kräver.",
		background:      "Min bakgrund omfattar %s.",
		closing:         "Tack för att du tar dig tid att läsa min ansökan. Jag ser fram emot möjligheten att berätta mer om hur jag kan bidra till ert team.",
		summaryRole:     ", %s med erfarenhet från %s",
		summaryApplying: ", som söker tjänsten som %s",
	},
}

func phrasesFor(l job.Language) *phrases {
	if p, ok := catalog[l]; ok {
		return p
	}
	return catalog[job.DefaultLanguage]
}
