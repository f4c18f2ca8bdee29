package grading

// Defaults applied when a criteria field is left at its zero value.
const (
	DefaultRulesTotalPoints  = 50
	DefaultRubricTotalPoints = 50
	DefaultMinLengthPoints   = 5

	missingInputMaxScore = 100
)

// Criteria configures how one lab or assignment is graded. Either part may be
// nil; a nil part is skipped.
type Criteria struct {
	Rules  *Rules  `json:"rules,omitempty" yaml:"rules,omitempty"`
	Rubric *Rubric `json:"rubric,omitempty" yaml:"rubric,omitempty"`
}

// Rules award points for numeric answers found in the submission.
type Rules struct {
	TotalPoints    int                       `json:"totalPoints,omitempty" yaml:"totalPoints,omitempty" validate:"gte=0"`
	ExpectedValues OrderedMap[ExpectedValue] `json:"expectedValues" yaml:"expectedValues"`
}

// ExpectedValue is the accepted answer for one named quantity. When Range is
// set it replaces the tolerance check.
type ExpectedValue struct {
	Value     float64 `json:"value" yaml:"value"`
	Tolerance float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" validate:"gte=0"`
	Points    float64 `json:"points" yaml:"points" validate:"gte=0"`
	Range     *Range  `json:"range,omitempty" yaml:"range,omitempty"`
}

// Rubric award points for the structure and content of the report.
type Rubric struct {
	TotalPoints     int                          `json:"totalPoints,omitempty" yaml:"totalPoints,omitempty" validate:"gte=0"`
	Sections        OrderedMap[SectionCriterion] `json:"sections" yaml:"sections"`
	Keywords        *KeywordCriterion            `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MinLength       int                          `json:"minLength,omitempty" yaml:"minLength,omitempty" validate:"gte=0"`
	MinLengthPoints float64                      `json:"minLengthPoints,omitempty" yaml:"minLengthPoints,omitempty" validate:"gte=0"`
}

type SectionCriterion struct {
	Indicators []string `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Points     float64  `json:"points" yaml:"points" validate:"gte=0"`
	MinLength  int      `json:"minLength,omitempty" yaml:"minLength,omitempty" validate:"gte=0"`
}

// KeywordCriterion pays PointsPerKeyword for each listed term present, up to
// MaxPoints. A MaxPoints of zero leaves the award uncapped.
type KeywordCriterion struct {
	List             []string `json:"list" yaml:"list"`
	PointsPerKeyword float64  `json:"pointsPerKeyword" yaml:"pointsPerKeyword" validate:"gte=0"`
	MaxPoints        float64  `json:"maxPoints,omitempty" yaml:"maxPoints,omitempty" validate:"gte=0"`
}

func (r *Rules) totalPoints() float64 {
	if r == nil || r.TotalPoints == 0 {
		return DefaultRulesTotalPoints
	}
	return float64(r.TotalPoints)
}

func (r *Rubric) totalPoints() float64 {
	if r == nil || r.TotalPoints == 0 {
		return DefaultRubricTotalPoints
	}
	return float64(r.TotalPoints)
}

func (r *Rubric) minLengthPoints() float64 {
	if r.MinLengthPoints == 0 {
		return DefaultMinLengthPoints
	}
	return r.MinLengthPoints
}

func (s SectionCriterion) indicatorsFor(name string) []string {
	if len(s.Indicators) == 0 {
		return []string{name}
	}
	return s.Indicators
}

func (s SectionCriterion) minLength() int {
	if s.MinLength == 0 {
		return DefaultSectionMinLength
	}
	return s.MinLength
}

// Clone returns a deep copy of c.
func (c Criteria) Clone() Criteria {
	var out Criteria
	if c.Rules != nil {
		r := Rules{TotalPoints: c.Rules.TotalPoints}
		if c.Rules.ExpectedValues.Present() {
			r.ExpectedValues = OrderedOf[ExpectedValue]()
		}
		for _, e := range c.Rules.ExpectedValues.Entries() {
			ev := e.Value
			if ev.Range != nil {
				rg := Range{}
				if ev.Range.Min != nil {
					v := *ev.Range.Min
					rg.Min = &v
				}
				if ev.Range.Max != nil {
					v := *ev.Range.Max
					rg.Max = &v
				}
				ev.Range = &rg
			}
			r.ExpectedValues.Set(e.Key, ev)
		}
		out.Rules = &r
	}
	if c.Rubric != nil {
		rb := Rubric{
			TotalPoints:     c.Rubric.TotalPoints,
			MinLength:       c.Rubric.MinLength,
			MinLengthPoints: c.Rubric.MinLengthPoints,
		}
		if c.Rubric.Sections.Present() {
			rb.Sections = OrderedOf[SectionCriterion]()
		}
		for _, e := range c.Rubric.Sections.Entries() {
			sc := e.Value
			sc.Indicators = append([]string(nil), sc.Indicators...)
			rb.Sections.Set(e.Key, sc)
		}
		if c.Rubric.Keywords != nil {
			kw := *c.Rubric.Keywords
			kw.List = append([]string(nil), kw.List...)
			rb.Keywords = &kw
		}
		out.Rubric = &rb
	}
	return out
}
