package grading

import (
	"math"
	"regexp"
	"strconv"
)

// numberPattern is one or more digits with an optional decimal part.
const numberPattern = `(\d+(?:\.\d+)?)`

// fieldPatterns returns the accepted spellings for a field, in priority order:
//
//	voltage: 12.5
//	voltage = 12.5
//	voltage : 12.5
func fieldPatterns(field string) []string {
	f := regexp.QuoteMeta(field)
	return []string{
		`(?i)` + f + `:\s*` + numberPattern,
		`(?i)` + f + `\s*=\s*` + numberPattern,
		`(?i)` + f + `\s*:\s*` + numberPattern,
	}
}

// ExtractNumber finds the value reported for field inside free-form text.
// The field name is matched literally and case-insensitively. It returns false
// when no pattern matches or the matched digits do not parse.
func ExtractNumber(text, field string) (float64, bool) {
	if text == "" || field == "" {
		return 0, false
	}
	for _, p := range fieldPatterns(field) {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// NotFound is the sentinel the checkers treat as "no value was extracted".
var NotFound = math.NaN()

// toleranceSlack is the relative allowance for binary rounding, so decimal
// boundaries such as 7.2 against 7±0.2 still match.
const toleranceSlack = 1e-9

// IsWithinTolerance reports whether actual is within tolerance of expected,
// boundary included. A NaN actual (NotFound) never matches. Negative
// tolerances count as zero.
func IsWithinTolerance(actual, expected, tolerance float64) bool {
	if math.IsNaN(actual) {
		return false
	}
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = 0
	}
	slack := toleranceSlack * math.Max(1, math.Max(math.Abs(actual), math.Abs(expected)))
	return math.Abs(actual-expected) <= tolerance+slack
}

// Range is an inclusive numeric interval. A nil bound means the range is
// incomplete and nothing is in it; zero is a valid bound.
type Range struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// NewRange builds a complete Range.
func NewRange(lo, hi float64) *Range {
	return &Range{Min: &lo, Max: &hi}
}

// IsInRange reports whether value lies in r, bounds included.
func IsInRange(value float64, r *Range) bool {
	if math.IsNaN(value) || r == nil || r.Min == nil || r.Max == nil {
		return false
	}
	return *r.Min <= value && value <= *r.Max
}
