package document

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	in := SectionInput{Profile: testProfile(t), Job: testJob(), Kind: KindResume}
	got := buildPrompt(SectionExperience, "formal", in)

	for _, want := range []string{
		"writing the experience section of a resume for Ada Lovelace",
		"Tone: formal.",
		"Role: Senior Go Engineer",
		"Company: Acme",
		"Engineer at Engines Ltd (1842 - 1843)",
		"* Wrote the first program",
		sectionSpecs[SectionExperience].instruction,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "Native") {
		t.Error("experience prompt should not carry language data")
	}
}

func TestFallbackMarkdown_EscapesMarkup(t *testing.T) {
	t.Parallel()

	in := SectionInput{Profile: testProfile(t), Job: testJob(), Kind: KindResume}
	in.Profile.Skills = []string{"C*", "==mark=="}

	got := fallbackMarkdown(SectionSkills, in)
	if !strings.Contains(got, `- C\*`) || !strings.Contains(got, `\=\=mark\=\=`) {
		t.Errorf("fallback skills not escaped: %q", got)
	}
}

func TestFallbackMarkdown_Summary(t *testing.T) {
	t.Parallel()

	in := SectionInput{Profile: testProfile(t), Job: testJob(), Kind: KindResume}
	got := fallbackMarkdown(SectionSummary, in)

	want := "Ada Lovelace, Engineer with experience at Engines Ltd, applying for the Senior Go Engineer position."
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}
