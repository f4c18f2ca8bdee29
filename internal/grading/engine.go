package grading

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Result is the outcome of grading one submission.
type Result struct {
	Score            float64   `json:"score"`
	MaxScore         float64   `json:"maxScore"`
	Percentage       int       `json:"percentage"`
	Breakdown        Breakdown `json:"breakdown"`
	Feedback         []string  `json:"feedback"`
	DetailedFeedback []string  `json:"detailedFeedback"`
	OverallFeedback  string    `json:"overallFeedback"`
	AutoGraded       bool      `json:"autoGraded"`
	GradedAt         time.Time `json:"gradedAt"`
}

// Breakdown splits the score by pass. A nil field means the pass did not run.
type Breakdown struct {
	RuleBasedScore *float64 `json:"ruleBasedScore,omitempty"`
	RuleMaxScore   *float64 `json:"ruleMaxScore,omitempty"`
	RubricScore    *float64 `json:"rubricScore,omitempty"`
	RubricMaxScore *float64 `json:"rubricMaxScore,omitempty"`
}

// Clone returns a deep copy; the feedback slices and breakdown scores are not shared.
func (r Result) Clone() Result {
	out := r
	out.Feedback = cloneStrings(r.Feedback)
	out.DetailedFeedback = cloneStrings(r.DetailedFeedback)
	out.Breakdown = Breakdown{
		RuleBasedScore: cloneFloat(r.Breakdown.RuleBasedScore),
		RuleMaxScore:   cloneFloat(r.Breakdown.RuleMaxScore),
		RubricScore:    cloneFloat(r.Breakdown.RubricScore),
		RubricMaxScore: cloneFloat(r.Breakdown.RubricMaxScore),
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Input is one grading request. A nil Submission or Criteria produces the
// missing-input result rather than an error.
type Input struct {
	Submission *string   `json:"submission"`
	Criteria   *Criteria `json:"criteria"`
}

// Engine options

type Option func(*config)

type config struct {
	Now            func() time.Time
	LegacyMaxScore bool // always count both default totals into maxScore
	Logger         *slog.Logger
}

func WithClock(now func() time.Time) Option { return func(c *config) { c.Now = now } }
func WithLegacyMaxScore(b bool) Option       { return func(c *config) { c.LegacyMaxScore = b } }
func WithLogger(l *slog.Logger) Option       { return func(c *config) { c.Logger = l } }

// Engine grades lab reports against Criteria. It holds only configuration and
// is safe for concurrent use.
type Engine struct {
	cfg config
}

func NewEngine(opts ...Option) *Engine {
	cfg := config{Now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg}
}

var defaultEngine = NewEngine()

// AutoGrade grades submission with the default engine.
func AutoGrade(submission string, criteria *Criteria) Result {
	return defaultEngine.Grade(Input{Submission: &submission, Criteria: criteria})
}

// tally accumulates one pass. It never outlives a Grade call.
type tally struct {
	score    float64
	feedback []string
	detailed []string
}

func (t *tally) pass(line string)   { t.feedback = append(t.feedback, line) }
func (t *tally) detail(line string) { t.detailed = append(t.detailed, line) }

func (e *Engine) Grade(in Input) Result {
	if in.Submission == nil || in.Criteria == nil {
		return Result{
			MaxScore:         missingInputMaxScore,
			Feedback:         []string{"Missing submission or grading criteria"},
			DetailedFeedback: []string{},
			AutoGraded:       true,
			GradedAt:         e.cfg.Now(),
		}
	}
	text, c := *in.Submission, in.Criteria

	var (
		total     float64
		maxScore  float64
		breakdown Breakdown
		all       tally
	)

	if c.Rules != nil && c.Rules.ExpectedValues.Present() {
		rt := gradeRules(text, c.Rules)
		ruleMax := c.Rules.totalPoints()
		breakdown.RuleBasedScore = ptr(rt.score)
		breakdown.RuleMaxScore = ptr(ruleMax)
		total += rt.score
		maxScore += ruleMax
		all.merge(rt)
	}

	if c.Rubric != nil {
		bt := gradeRubric(text, c.Rubric)
		rubricMax := c.Rubric.totalPoints()
		breakdown.RubricScore = ptr(bt.score)
		breakdown.RubricMaxScore = ptr(rubricMax)
		total += bt.score
		maxScore += rubricMax
		all.merge(bt)
	}

	if e.cfg.LegacyMaxScore {
		maxScore = c.Rules.totalPoints() + c.Rubric.totalPoints()
	}

	pct := percentage(total, maxScore)
	res := Result{
		Score:            total,
		MaxScore:         maxScore,
		Percentage:       pct,
		Breakdown:        breakdown,
		Feedback:         nonNil(all.feedback),
		DetailedFeedback: nonNil(all.detailed),
		OverallFeedback:  OverallFeedback(pct),
		AutoGraded:       true,
		GradedAt:         e.cfg.Now(),
	}
	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug("graded submission",
			"score", res.Score, "max_score", res.MaxScore, "percentage", res.Percentage,
			"feedback_lines", len(res.Feedback))
	}
	return res
}

func (t *tally) merge(o tally) {
	t.score += o.score
	t.feedback = append(t.feedback, o.feedback...)
	t.detailed = append(t.detailed, o.detailed...)
}

// gradeRules runs the rule-based pass over every expected value, in order.
func gradeRules(text string, rules *Rules) tally {
	var t tally
	for _, e := range rules.ExpectedValues.Entries() {
		field, ev := e.Key, e.Value
		pts := fmtPoints(ev.Points)

		actual, found := ExtractNumber(text, field)
		if !found {
			t.pass(fmt.Sprintf("✗ %s: Not found (0/%s)", field, pts))
			t.detail(fmt.Sprintf("%s: no value found. Report it as \"%s: <value>\".", field, field))
			continue
		}

		var ok bool
		if ev.Range != nil {
			ok = IsInRange(actual, ev.Range)
		} else {
			ok = IsWithinTolerance(actual, ev.Value, ev.Tolerance)
		}
		if ok {
			t.score += ev.Points
			t.pass(fmt.Sprintf("✓ %s: Correct (%s/%s)", field, pts, pts))
			t.detail(fmt.Sprintf("%s: %s is an accurate result.", field, fmtPoints(actual)))
			continue
		}
		t.pass(fmt.Sprintf("✗ %s: Incorrect (0/%s)", field, pts))
		t.detail(fmt.Sprintf("%s: %s is outside the accepted range. Recheck your measurement and calculation.", field, fmtPoints(actual)))
	}
	return t
}

// percentage rounds score/max to a whole percent in [0, 100].
func percentage(score, outOf float64) int {
	if outOf <= 0 {
		return 0
	}
	p := math.Round(score / outOf * 100)
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}

func ptr(v float64) *float64 { return &v }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
