// Package profile loads resume profiles from YAML and caches them per path.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alnah/go-jobcraft/internal/yamlutil"
)

// Profile is the candidate's resume data. Consumers share one instance per
// cached file and must treat it as read-only.
type Profile struct {
	PersonalInfo   PersonalInfo    `yaml:"personal_information"`
	Summary        string          `yaml:"summary"`
	Education      []Education     `yaml:"education_details"`
	Experience     []Experience    `yaml:"experience_details"`
	Projects       []Project       `yaml:"projects"`
	Achievements   []Achievement   `yaml:"achievements"`
	Certifications []Certification `yaml:"certifications"`
	Languages      []Language      `yaml:"languages"`
	Interests      []string        `yaml:"interests"`
	Skills         []string        `yaml:"skills"`
}

type PersonalInfo struct {
	Name        string `yaml:"name"`
	Surname     string `yaml:"surname"`
	Email       string `yaml:"email"`
	PhonePrefix string `yaml:"phone_prefix"`
	Phone       string `yaml:"phone"`
	City        string `yaml:"city"`
	Country     string `yaml:"country"`
	LinkedIn    string `yaml:"linkedin"`
	GitHub      string `yaml:"github"`
	Website     string `yaml:"website"`
}

type Education struct {
	Level        string `yaml:"education_level"`
	Institution  string `yaml:"institution"`
	FieldOfStudy string `yaml:"field_of_study"`
	Grade        string `yaml:"final_evaluation_grade"`
	StartDate    string `yaml:"start_date"`
	Completion   string `yaml:"year_of_completion"`
}

type Experience struct {
	Position         string           `yaml:"position"`
	Company          string           `yaml:"company"`
	Period           string           `yaml:"employment_period"`
	Location         string           `yaml:"location"`
	Industry         string           `yaml:"industry"`
	Responsibilities Responsibilities `yaml:"key_responsibilities"`
	Skills           []string         `yaml:"skills_acquired"`
}

type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
}

type Achievement struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Certification struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Language struct {
	Language    string `yaml:"language"`
	Proficiency string `yaml:"proficiency"`
}

// Responsibilities accepts a list of strings or a list of single-entry maps
// such as {responsibility_1: "..."}.
type Responsibilities []string

func (r *Responsibilities) UnmarshalYAML(unmarshal func(any) error) error {
	var raw []any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	out := make(Responsibilities, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, strings.TrimSpace(v))
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				out = append(out, strings.TrimSpace(fmt.Sprint(v[k])))
			}
		case nil:
		default:
			out = append(out, strings.TrimSpace(fmt.Sprint(v)))
		}
	}
	*r = out
	return nil
}

// FullName joins name and surname.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.PersonalInfo.Name + " " + p.PersonalInfo.Surname)
}

// Phone joins prefix and number.
func (p *Profile) Phone() string {
	return strings.TrimSpace(p.PersonalInfo.PhonePrefix + " " + p.PersonalInfo.Phone)
}

// Location joins city and country.
func (p *Profile) Location() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{p.PersonalInfo.City, p.PersonalInfo.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// AllSkills merges top-level skills and skills acquired in each role,
// keeping first-seen order and dropping case-insensitive duplicates.
func (p *Profile) AllSkills() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}
	for _, s := range p.Skills {
		add(s)
	}
	for _, e := range p.Experience {
		for _, s := range e.Skills {
			add(s)
		}
	}
	return out
}

// Parse decodes a profile document. Unknown keys are ignored so older and
// newer profile files keep loading.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yamlutil.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.FullName() == "" {
		return errors.New("profile has no personal_information.name")
	}
	return nil
}
