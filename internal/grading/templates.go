package grading

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Built-in template names.
const (
	TemplateOhmsLaw   = "ohmsLaw"
	TemplateChemistry = "chemistry"
)

// ohmsLawCriteria grades a series-circuit lab: 12 V across 5 Ω gives 2.4 A.
func ohmsLawCriteria() Criteria {
	return Criteria{
		Rules: &Rules{
			TotalPoints: 45,
			ExpectedValues: OrderedOf(
				Entry[ExpectedValue]{"voltage", ExpectedValue{Value: 12, Tolerance: 0.5, Points: 15}},
				Entry[ExpectedValue]{"current", ExpectedValue{Value: 2.4, Tolerance: 0.1, Points: 15}},
				Entry[ExpectedValue]{"resistance", ExpectedValue{Value: 5, Tolerance: 0.25, Points: 15}},
			),
		},
		Rubric: &Rubric{
			TotalPoints: 55,
			Sections: OrderedOf(
				Entry[SectionCriterion]{"Hypothesis", SectionCriterion{Indicators: []string{"hypothesis", "predict"}, Points: 10, MinLength: 30}},
				Entry[SectionCriterion]{"Procedure", SectionCriterion{Indicators: []string{"procedure", "method", "steps"}, Points: 10, MinLength: 50}},
				Entry[SectionCriterion]{"Results", SectionCriterion{Indicators: []string{"results", "data", "observations"}, Points: 10, MinLength: 50}},
				Entry[SectionCriterion]{"Conclusion", SectionCriterion{Indicators: []string{"conclusion", "in summary"}, Points: 10, MinLength: 40}},
			),
			Keywords: &KeywordCriterion{
				List:             []string{"ohm", "voltage", "current", "resistance", "proportional", "linear"},
				PointsPerKeyword: 2,
				MaxPoints:        10,
			},
			MinLength:       300,
			MinLengthPoints: 5,
		},
	}
}

// chemistryCriteria grades an acid-base titration lab.
func chemistryCriteria() Criteria {
	return Criteria{
		Rules: &Rules{
			TotalPoints: 45,
			ExpectedValues: OrderedOf(
				Entry[ExpectedValue]{"pH", ExpectedValue{Value: 7, Tolerance: 0.2, Points: 15}},
				Entry[ExpectedValue]{"molarity", ExpectedValue{Value: 0.1, Tolerance: 0.01, Points: 15}},
				Entry[ExpectedValue]{"volume", ExpectedValue{Value: 25, Tolerance: 0.5, Points: 15}},
			),
		},
		Rubric: &Rubric{
			TotalPoints: 55,
			Sections: OrderedOf(
				Entry[SectionCriterion]{"Hypothesis", SectionCriterion{Indicators: []string{"hypothesis", "predict"}, Points: 10, MinLength: 30}},
				Entry[SectionCriterion]{"Materials", SectionCriterion{Indicators: []string{"materials", "equipment", "apparatus"}, Points: 10, MinLength: 30}},
				Entry[SectionCriterion]{"Procedure", SectionCriterion{Indicators: []string{"procedure", "method"}, Points: 10, MinLength: 50}},
				Entry[SectionCriterion]{"Analysis", SectionCriterion{Indicators: []string{"analysis", "discussion", "results"}, Points: 10, MinLength: 50}},
			),
			Keywords: &KeywordCriterion{
				List:             []string{"acid", "base", "titration", "indicator", "neutralization", "equivalence point"},
				PointsPerKeyword: 2,
				MaxPoints:        10,
			},
			MinLength:       300,
			MinLengthPoints: 5,
		},
	}
}

// ---- Registry ----

type templateRegistry struct {
	mu sync.RWMutex
	m  map[string]Criteria
}

var templates = &templateRegistry{m: map[string]Criteria{
	TemplateOhmsLaw:   ohmsLawCriteria(),
	TemplateChemistry: chemistryCriteria(),
}}

// RegisterTemplate installs c under name, replacing any existing template.
func RegisterTemplate(name string, c Criteria) {
	if name == "" {
		return
	}
	templates.mu.Lock()
	defer templates.mu.Unlock()
	templates.m[name] = c.Clone()
}

// Template returns a copy of the named criteria.
func Template(name string) (Criteria, bool) {
	templates.mu.RLock()
	defer templates.mu.RUnlock()
	c, ok := templates.m[name]
	if !ok {
		return Criteria{}, false
	}
	return c.Clone(), true
}

// TemplateNames lists registered templates, sorted.
func TemplateNames() []string {
	templates.mu.RLock()
	defer templates.mu.RUnlock()
	out := make([]string, 0, len(templates.m))
	for k := range templates.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LoadTemplatesDir registers every *.yaml / *.yml file in dir under its file
// name without extension. It returns the names loaded.
func LoadTemplatesDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var loaded []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		c, err := ReadTemplateFile(filepath.Join(dir, de.Name()))
		if err != nil {
			return loaded, err
		}
		name := strings.TrimSuffix(de.Name(), filepath.Ext(de.Name()))
		RegisterTemplate(name, c)
		loaded = append(loaded, name)
	}
	return loaded, nil
}

// ReadTemplateFile decodes one YAML criteria file. Unknown fields are rejected.
func ReadTemplateFile(path string) (Criteria, error) {
	f, err := os.Open(path)
	if err != nil {
		return Criteria{}, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var c Criteria
	if err := dec.Decode(&c); err != nil {
		return Criteria{}, fmt.Errorf("template %s: %w", filepath.Base(path), err)
	}
	return c, nil
}
