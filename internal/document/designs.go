package document

var letterPlan = []SectionID{SectionHeader, SectionBody, SectionClosing}

// newClassic is a single serif column in the conventional order.
func newClassic(deps strategyDeps) (Strategy, error) {
	return newDesign(deps, &design{
		style: StyleClassic,
		voice: "formal and understated, concise sentences",
		plans: map[Kind][]SectionID{
			KindResume: {
				SectionHeader, SectionSummary, SectionExperience, SectionEducation,
				SectionProjects, SectionAchievements, SectionCertifications,
				SectionSkills, SectionLanguages,
			},
			KindCoverLetter: letterPlan,
		},
	})
}

// newModern leads with the target role and puts skills before history.
func newModern(deps strategyDeps) (Strategy, error) {
	return newDesign(deps, &design{
		style:    StyleModern,
		voice:    "confident and direct, strong action verbs, quantified impact where the data allows",
		headline: true,
		plans: map[Kind][]SectionID{
			KindResume: {
				SectionHeader, SectionSummary, SectionSkills, SectionExperience,
				SectionProjects, SectionEducation, SectionCertifications,
				SectionAchievements, SectionLanguages,
			},
			KindCoverLetter: letterPlan,
		},
	})
}

// newSidebar puts contact details, skills and languages in a side column.
func newSidebar(deps strategyDeps) (Strategy, error) {
	return newDesign(deps, &design{
		style: StyleSidebar,
		voice: "warm and professional, compact phrasing suited to a narrow layout",
		plans: map[Kind][]SectionID{
			KindResume: {
				SectionHeader, SectionSkills, SectionLanguages, SectionCertifications,
				SectionSummary, SectionExperience, SectionProjects,
				SectionEducation, SectionAchievements,
			},
			KindCoverLetter: letterPlan,
		},
		side: map[SectionID]bool{
			SectionHeader:         true,
			SectionSkills:         true,
			SectionLanguages:      true,
			SectionCertifications: true,
		},
	})
}
