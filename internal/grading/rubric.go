package grading

import (
	"fmt"
	"math"
	"strings"
)

// maxKeywordSuggestions bounds how many missing keywords are suggested back.
const maxKeywordSuggestions = 3

// gradeRubric scores sections, then keywords, then minimum length.
func gradeRubric(text string, r *Rubric) tally {
	var t tally

	for _, e := range r.Sections.Entries() {
		name, sc := e.Key, e.Value
		pts := fmtPoints(sc.Points)
		minLen := sc.minLength()
		if HasSection(text, sc.indicatorsFor(name), minLen) {
			t.score += sc.Points
			t.pass(fmt.Sprintf("✓ %s: Present (%s/%s)", name, pts, pts))
			continue
		}
		t.pass(fmt.Sprintf("✗ %s: Missing (0/%s)", name, pts))
		t.detail(fmt.Sprintf("Add a %s section with at least %d characters of content.", name, minLen))
	}

	if kw := r.Keywords; kw != nil {
		found := CountKeywords(text, kw.List)
		earned := float64(found) * kw.PointsPerKeyword
		if kw.MaxPoints > 0 {
			earned = math.Min(earned, kw.MaxPoints)
		}
		t.score += earned
		mark := "✓"
		if found == 0 {
			mark = "✗"
		}
		t.pass(fmt.Sprintf("%s Keywords: %d/%d found (%s points)", mark, found, len(kw.List), fmtPoints(earned)))
		if found < len(kw.List) {
			missing := MissingKeywords(text, kw.List)
			if len(missing) > maxKeywordSuggestions {
				missing = missing[:maxKeywordSuggestions]
			}
			if len(missing) > 0 {
				t.detail("Consider discussing: " + strings.Join(missing, ", "))
			}
		}
	}

	if r.MinLength > 0 {
		pts := r.minLengthPoints()
		if n := textLength(text); n >= r.MinLength {
			t.score += pts
			t.pass(fmt.Sprintf("✓ Length: Meets minimum (%s/%s)", fmtPoints(pts), fmtPoints(pts)))
		} else {
			t.pass(fmt.Sprintf("✗ Length: Report too short (0/%s)", fmtPoints(pts)))
			t.detail(fmt.Sprintf("Report should be at least %d characters long (currently %d).", r.MinLength, n))
		}
	}

	return t
}
