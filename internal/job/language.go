package job

import (
	"strings"
	"unicode"
)

// Language is the ISO 639-1 code of the language documents are written in.
type Language string

const (
	English Language = "en"
	Swedish Language = "sv"
)

// DefaultLanguage is used when a posting is too short to tell.
const DefaultLanguage = English

// ParseLanguage accepts a supported code or English name, any case.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "eng", "english":
		return English, true
	case "sv", "swe", "swedish", "svenska":
		return Swedish, true
	}
	return "", false
}

// Name is the English name of the language, as used in model prompts.
func (l Language) Name() string {
	if l == Swedish {
		return "Swedish"
	}
	return "English"
}

// Detection needs this much text to be meaningful.
const (
	minDetectRunes = 50
	minDetectWords = 10
)

type keywordSet struct {
	weight int
	words  map[string]bool
}

func set(weight int, words ...string) keywordSet {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return keywordSet{weight: weight, words: m}
}

// Function words weigh most, then job vocabulary, then technical terms.
var keywords = map[Language][]keywordSet{
	Swedish: {
		set(3, "och", "att", "är", "för", "med", "som", "vi", "du", "har", "kan",
			"ska", "kommer", "vara", "till", "av", "på", "i", "det", "en", "ett"),
		set(2, "arbete", "jobb", "tjänst", "roll", "anställning", "företag",
			"organisation", "kollegor", "ansvar", "erfarenhet", "kunskap", "kompetens",
			"utbildning", "kvalifikationer", "utveckling", "möjlighet", "karriär", "lön", "förmåner"),
		set(1, "programmering", "systemutveckling", "webbdesign", "databas", "säkerhet",
			"nätverk", "teknisk", "mjukvara", "hårdvara", "applikation", "plattform"),
	},
	English: {
		set(3, "and", "to", "is", "for", "with", "as", "we", "you", "have", "can",
			"will", "be", "of", "in", "the", "a", "an", "that", "this", "or"),
		set(2, "work", "job", "role", "employment", "career", "company",
			"organization", "colleagues", "responsibility", "experience", "knowledge", "skills",
			"education", "qualifications", "development", "opportunity", "salary", "benefits", "requirements"),
		set(1, "programming", "software", "web", "database", "security",
			"network", "technical", "application", "platform", "framework", "technology", "coding"),
	},
}

// DetectLanguage scores text against weighted keyword lists. Short texts and
// ties give DefaultLanguage.
func DetectLanguage(text string) Language {
	if len([]rune(strings.TrimSpace(text))) < minDetectRunes {
		return DefaultLanguage
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) < minDetectWords {
		return DefaultLanguage
	}

	sv, en := score(words, keywords[Swedish]), score(words, keywords[English])
	if sv > en {
		return Swedish
	}
	return DefaultLanguage
}

func score(words []string, sets []keywordSet) int {
	total := 0
	for _, w := range words {
		for _, s := range sets {
			if s.words[w] {
				total += s.weight
			}
		}
	}
	return total
}
