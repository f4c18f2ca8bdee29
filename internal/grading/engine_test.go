package grading

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func grade(e *Engine, text string, c *Criteria) Result {
	return e.Grade(Input{Submission: &text, Criteria: c})
}

func electricalRules() *Rules {
	return &Rules{
		ExpectedValues: OrderedOf(
			Entry[ExpectedValue]{"voltage", ExpectedValue{Value: 12, Tolerance: 0.5, Points: 15}},
			Entry[ExpectedValue]{"current", ExpectedValue{Value: 3, Tolerance: 0.1, Points: 15}},
		),
	}
}

func TestGrade_MissingInputs(t *testing.T) {
	e := newTestEngine()

	res := e.Grade(Input{Submission: strPtr("voltage: 12"), Criteria: nil})
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 100.0, res.MaxScore)
	assert.True(t, res.AutoGraded)
	require.Len(t, res.Feedback, 1)
	assert.Contains(t, res.Feedback[0], "Missing")
	assert.Equal(t, fixedNow, res.GradedAt)

	res = e.Grade(Input{Criteria: &Criteria{Rules: electricalRules()}})
	assert.Equal(t, 100.0, res.MaxScore)
	assert.Len(t, res.Feedback, 1)

	res = AutoGrade("anything", nil)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 100.0, res.MaxScore)
	assert.True(t, res.AutoGraded)
}

func TestGrade_RulesOnly(t *testing.T) {
	c := &Criteria{Rules: electricalRules()}

	t.Run("presence based max", func(t *testing.T) {
		res := grade(newTestEngine(), "voltage: 12.0, current: 3.0", c)
		assert.Equal(t, 30.0, res.Score)
		assert.Equal(t, 50.0, res.MaxScore)
		assert.Equal(t, 60, res.Percentage)
		assert.Equal(t, []string{"✓ voltage: Correct (15/15)", "✓ current: Correct (15/15)"}, res.Feedback)
		require.NotNil(t, res.Breakdown.RuleBasedScore)
		assert.Equal(t, 30.0, *res.Breakdown.RuleBasedScore)
		assert.Equal(t, 50.0, *res.Breakdown.RuleMaxScore)
		assert.Nil(t, res.Breakdown.RubricScore)
		assert.Nil(t, res.Breakdown.RubricMaxScore)
		assert.Equal(t, TierNeedsWork, res.OverallFeedback)
	})

	t.Run("legacy max counts absent rubric", func(t *testing.T) {
		res := grade(newTestEngine(WithLegacyMaxScore(true)), "voltage: 12.0, current: 3.0", c)
		assert.Equal(t, 30.0, res.Score)
		assert.Equal(t, 100.0, res.MaxScore)
		assert.Equal(t, 30, res.Percentage)
	})

	t.Run("incorrect and missing", func(t *testing.T) {
		res := grade(newTestEngine(), "voltage = 10", c)
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, []string{"✗ voltage: Incorrect (0/15)", "✗ current: Not found (0/15)"}, res.Feedback)
		require.Len(t, res.DetailedFeedback, 2)
		assert.Contains(t, res.DetailedFeedback[0], "outside the accepted range")
		assert.Contains(t, res.DetailedFeedback[1], "no value found")
	})

	t.Run("range replaces tolerance", func(t *testing.T) {
		rc := &Criteria{Rules: &Rules{TotalPoints: 10, ExpectedValues: OrderedOf(
			Entry[ExpectedValue]{"pH", ExpectedValue{Value: 99, Points: 10, Range: NewRange(0, 7)}},
		)}}
		res := grade(newTestEngine(), "pH: 6.5", rc)
		assert.Equal(t, 10.0, res.Score)
		assert.Equal(t, 100, res.Percentage)
	})

	t.Run("fields graded in declared order", func(t *testing.T) {
		oc := &Criteria{Rules: &Rules{ExpectedValues: OrderedOf(
			Entry[ExpectedValue]{"zeta", ExpectedValue{Value: 1, Points: 1}},
			Entry[ExpectedValue]{"alpha", ExpectedValue{Value: 1, Points: 1}},
			Entry[ExpectedValue]{"mu", ExpectedValue{Value: 1, Points: 1}},
		)}}
		res := grade(newTestEngine(), "", oc)
		require.Len(t, res.Feedback, 3)
		assert.True(t, strings.HasPrefix(res.Feedback[0], "✗ zeta"))
		assert.True(t, strings.HasPrefix(res.Feedback[1], "✗ alpha"))
		assert.True(t, strings.HasPrefix(res.Feedback[2], "✗ mu"))
	})
}

func TestGrade_RulesPresence(t *testing.T) {
	e := newTestEngine()

	empty := &Criteria{Rules: &Rules{TotalPoints: 20, ExpectedValues: OrderedOf[ExpectedValue]()}}
	res := grade(e, "voltage: 12", empty)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 20.0, res.MaxScore, "an empty expectedValues mapping is still a rules pass")
	require.NotNil(t, res.Breakdown.RuleMaxScore)
	assert.Equal(t, 20.0, *res.Breakdown.RuleMaxScore)
	assert.Equal(t, 0, res.Percentage)

	absent := &Criteria{Rules: &Rules{TotalPoints: 20}}
	res = grade(e, "voltage: 12", absent)
	assert.Equal(t, 0.0, res.MaxScore)
	assert.Nil(t, res.Breakdown.RuleMaxScore)
}

func TestGrade_EmptySubmissionIsNotMissing(t *testing.T) {
	c, ok := Template(TemplateOhmsLaw)
	require.True(t, ok)

	res := grade(newTestEngine(), "", &c)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 100.0, res.MaxScore)
	assert.Equal(t, 0, res.Percentage)
	assert.NotEmpty(t, res.Feedback)
	for _, line := range res.Feedback {
		assert.True(t, strings.HasPrefix(line, "✗"), line)
	}
	assert.Equal(t, TierReviewRequired, res.OverallFeedback)
}

func TestGrade_Rubric(t *testing.T) {
	t.Run("section awarded", func(t *testing.T) {
		c := &Criteria{Rubric: &Rubric{Sections: OrderedOf(
			Entry[SectionCriterion]{"Results", SectionCriterion{Indicators: []string{"result"}, Points: 10, MinLength: 30}},
		)}}
		res := grade(newTestEngine(), "Results: "+strings.Repeat("x", 40), c)
		assert.Equal(t, 10.0, res.Score)
		assert.Equal(t, []string{"✓ Results: Present (10/10)"}, res.Feedback)
		assert.Empty(t, res.DetailedFeedback)
	})

	t.Run("section name is the default indicator", func(t *testing.T) {
		c := &Criteria{Rubric: &Rubric{Sections: OrderedOf(
			Entry[SectionCriterion]{"Conclusion", SectionCriterion{Points: 5}},
		)}}
		res := grade(newTestEngine(), "conclusion: the relationship is linear", c)
		assert.Equal(t, 5.0, res.Score)

		res = grade(newTestEngine(), "conclusion: short", c)
		assert.Equal(t, 0.0, res.Score, "default min length is 20")
		assert.Equal(t, []string{"✗ Conclusion: Missing (0/5)"}, res.Feedback)
		require.Len(t, res.DetailedFeedback, 1)
		assert.Contains(t, res.DetailedFeedback[0], "Conclusion")
	})

	t.Run("keywords", func(t *testing.T) {
		c := &Criteria{Rubric: &Rubric{Keywords: &KeywordCriterion{
			List: []string{"acid", "base"}, PointsPerKeyword: 5, MaxPoints: 10,
		}}}
		res := grade(newTestEngine(), "The acid turned the paper red.", c)
		assert.Equal(t, 5.0, res.Score)
		assert.Equal(t, []string{"✓ Keywords: 1/2 found (5 points)"}, res.Feedback)
		assert.Equal(t, []string{"Consider discussing: base"}, res.DetailedFeedback)
	})

	t.Run("keyword points capped and suggestions limited", func(t *testing.T) {
		c := &Criteria{Rubric: &Rubric{Keywords: &KeywordCriterion{
			List:             []string{"a1", "a2", "a3", "m1", "m2", "m3", "m4"},
			PointsPerKeyword: 4,
			MaxPoints:        10,
		}}}
		res := grade(newTestEngine(), "a1 a2 a3", c)
		assert.Equal(t, 10.0, res.Score)
		assert.Equal(t, []string{"Consider discussing: m1, m2, m3"}, res.DetailedFeedback)
	})

	t.Run("min length", func(t *testing.T) {
		c := &Criteria{Rubric: &Rubric{MinLength: 10}}
		res := grade(newTestEngine(), "long enough text", c)
		assert.Equal(t, 5.0, res.Score, "default min length points")
		assert.Equal(t, []string{"✓ Length: Meets minimum (5/5)"}, res.Feedback)

		res = grade(newTestEngine(), "short", c)
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, []string{"✗ Length: Report too short (0/5)"}, res.Feedback)
		assert.Equal(t, []string{"Report should be at least 10 characters long (currently 5)."}, res.DetailedFeedback)
	})

	t.Run("order is sections keywords length", func(t *testing.T) {
		c := &Criteria{Rubric: &Rubric{
			Sections:  OrderedOf(Entry[SectionCriterion]{"Method", SectionCriterion{Points: 1}}),
			Keywords:  &KeywordCriterion{List: []string{"ohm"}, PointsPerKeyword: 1},
			MinLength: 1,
		}}
		res := grade(newTestEngine(), "x", c)
		require.Len(t, res.Feedback, 3)
		assert.Contains(t, res.Feedback[0], "Method")
		assert.Contains(t, res.Feedback[1], "Keywords")
		assert.Contains(t, res.Feedback[2], "Length")
	})
}

func TestGrade_FullMarks(t *testing.T) {
	c := &Criteria{
		Rules: &Rules{TotalPoints: 30, ExpectedValues: electricalRules().ExpectedValues},
		Rubric: &Rubric{
			TotalPoints: 30,
			Sections: OrderedOf(
				Entry[SectionCriterion]{"Results", SectionCriterion{Indicators: []string{"results"}, Points: 10, MinLength: 10}},
			),
			Keywords:        &KeywordCriterion{List: []string{"ohm", "current"}, PointsPerKeyword: 5, MaxPoints: 10},
			MinLength:       20,
			MinLengthPoints: 10,
		},
	}
	res := grade(newTestEngine(), "Results: voltage: 12, current: 3. Ohm's law holds.", c)
	assert.Equal(t, 60.0, res.Score)
	assert.Equal(t, res.MaxScore, res.Score)
	assert.Equal(t, 100, res.Percentage)
	assert.Equal(t, TierExcellent, res.OverallFeedback)
	assert.Len(t, res.DetailedFeedback, 2, "only the positive rule details")
	assert.Equal(t, 30.0, *res.Breakdown.RuleBasedScore)
	assert.Equal(t, 30.0, *res.Breakdown.RubricScore)
	assert.Equal(t, 30.0, *res.Breakdown.RubricMaxScore)
}

func TestGrade_AddingCorrectFieldRaisesScore(t *testing.T) {
	text := "voltage: 12, current: 3"
	one := &Criteria{Rules: &Rules{ExpectedValues: OrderedOf(
		Entry[ExpectedValue]{"voltage", ExpectedValue{Value: 12, Points: 15}},
	)}}
	two := &Criteria{Rules: &Rules{ExpectedValues: OrderedOf(
		Entry[ExpectedValue]{"voltage", ExpectedValue{Value: 12, Points: 15}},
		Entry[ExpectedValue]{"current", ExpectedValue{Value: 3, Points: 7}},
	)}}
	e := newTestEngine()
	assert.Equal(t, grade(e, text, one).Score+7, grade(e, text, two).Score)
}

func TestGrade_Idempotent(t *testing.T) {
	c, _ := Template(TemplateChemistry)
	text := "Hypothesis: we predict the solution reaches pH: 7.1 at the equivalence point. molarity = 0.1"
	a := AutoGrade(text, &c)
	b := AutoGrade(text, &c)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Percentage, b.Percentage)
	assert.Equal(t, a.Breakdown, b.Breakdown)
	assert.Equal(t, a.Feedback, b.Feedback)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, percentage(10, 0))
	assert.Equal(t, 67, percentage(2, 3))
	assert.Equal(t, 100, percentage(120, 100), "clamped")
	assert.Equal(t, 0, percentage(-5, 100))
	assert.Equal(t, 0, percentage(0, 0))
}

func TestOverallFeedbackTiers(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{100, TierExcellent},
		{90, TierExcellent},
		{89, TierGood},
		{80, TierGood},
		{79, TierSatisfactory},
		{70, TierSatisfactory},
		{69, TierNeedsWork},
		{60, TierNeedsWork},
		{59, TierReviewRequired},
		{0, TierReviewRequired},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, OverallFeedback(tc.pct), "pct=%d", tc.pct)
	}
}

func strPtr(s string) *string { return &s }

func TestResult_Clone(t *testing.T) {
	var empty Result
	c := empty.Clone()
	assert.Nil(t, c.Feedback)
	assert.Nil(t, c.Breakdown.RubricScore)

	r := grade(newTestEngine(), "voltage: 12\ncurrent: 3", &Criteria{Rules: electricalRules()})
	require.NotNil(t, r.Breakdown.RuleBasedScore)
	c = r.Clone()
	c.Feedback[0] = "changed"
	*c.Breakdown.RuleBasedScore = -1
	assert.NotEqual(t, "changed", r.Feedback[0])
	assert.Equal(t, 30.0, *r.Breakdown.RuleBasedScore)
}
