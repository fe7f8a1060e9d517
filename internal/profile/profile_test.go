package profile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-jobcraft/internal/logger"
)

const sampleProfile = `
personal_information:
  name: Ada
  surname: Lovelace
  email: ada@example.com
  phone_prefix: "+44"
  phone: "20 7946 0000"
  city: London
  country: UK
summary: Analyst of engines.
experience_details:
  - position: Engineer
    company: Analytical Engines Ltd
    employment_period: 1842 - 1843
    key_responsibilities:
      - responsibility_1: Wrote the first program
      - Annotated the memoir
    skills_acquired: [Mathematics, go]
skills: [Go, Mathematics]
interests: [Poetry]
`

func writeProfile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "resume.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestParse - Profile document decoding
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := p.FullName(); got != "Ada Lovelace" {
		t.Errorf("FullName() = %q", got)
	}
	if got := p.Phone(); got != "+44 20 7946 0000" {
		t.Errorf("Phone() = %q", got)
	}
	if got := p.Location(); got != "London, UK" {
		t.Errorf("Location() = %q", got)
	}

	wantResp := Responsibilities{"Wrote the first program", "Annotated the memoir"}
	if got := p.Experience[0].Responsibilities; !reflect.DeepEqual(got, wantResp) {
		t.Errorf("Responsibilities = %v, want %v", got, wantResp)
	}

	wantSkills := []string{"Go", "Mathematics"}
	if got := p.AllSkills(); !reflect.DeepEqual(got, wantSkills) {
		t.Errorf("AllSkills() = %v, want %v", got, wantSkills)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no name", "personal_information:\n  email: a@b.c\n"},
		{"syntax", "personal_information: [oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCache - Change-detecting profile cache
// ---------------------------------------------------------------------------

func TestCache_UnchangedFileReturnsSameProfile(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, t.TempDir(), sampleProfile)
	c := NewCache(logger.Discard())

	first, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if again != first {
			t.Fatal("unchanged file must return the cached profile")
		}
	}

	st := c.Stats()
	if st.Parses != 1 || st.Hits != 5 || st.Entries != 1 {
		t.Errorf("Stats() = %+v, want 1 parse, 5 hits, 1 entry", st)
	}
}

func TestCache_ChangedFileReparsesOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeProfile(t, dir, sampleProfile)
	c := NewCache(logger.Discard())

	first, err := c.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	writeProfile(t, dir, "personal_information:\n  name: Grace\n  surname: Hopper\n")
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	second, err := c.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	third, err := c.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if second == first {
		t.Error("changed file must be re-parsed")
	}
	if second != third {
		t.Error("second load after change must hit the cache")
	}
	if second.FullName() != "Grace Hopper" {
		t.Errorf("FullName() = %q", second.FullName())
	}
	if st := c.Stats(); st.Parses != 2 {
		t.Errorf("Parses = %d, want 2", st.Parses)
	}
}

func TestCache_FailureDoesNotPoison(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeProfile(t, dir, "personal_information: [broken")
	c := NewCache(logger.Discard())

	_, err := c.Load(path)
	if !errors.Is(err, ErrCacheLoad) {
		t.Fatalf("error = %v, want ErrCacheLoad", err)
	}
	var le *LoadError
	if !errors.As(err, &le) || le.Path != path {
		t.Errorf("error = %#v, want *LoadError for %s", err, path)
	}

	writeProfile(t, dir, sampleProfile)
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(path); err != nil {
		t.Fatalf("Load() after fix error = %v", err)
	}
}

func TestCache_MissingFile(t *testing.T) {
	t.Parallel()

	c := NewCache(logger.Discard())
	_, err := c.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrCacheLoad) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrCacheLoad wrapping os.ErrNotExist", err)
	}
	if _, err := c.Load(""); !errors.Is(err, ErrCacheLoad) {
		t.Errorf("empty path error = %v", err)
	}
}

func TestCache_ConcurrentLoadsParseOnce(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, t.TempDir(), sampleProfile)
	c := NewCache(logger.Discard())

	const n = 32
	results := make([]*Profile, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Load(path)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent loads must share one profile")
		}
	}
	if st := c.Stats(); st.Parses != 1 {
		t.Errorf("Parses = %d, want 1", st.Parses)
	}
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, t.TempDir(), sampleProfile)
	c := NewCache(logger.Discard())

	first, _ := c.Load(path)
	c.Invalidate(path)
	second, err := c.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("Invalidate must force a re-parse")
	}
}
