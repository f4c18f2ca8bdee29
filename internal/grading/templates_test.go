package grading

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTemplates(t *testing.T) {
	names := TemplateNames()
	assert.Contains(t, names, TemplateOhmsLaw)
	assert.Contains(t, names, TemplateChemistry)

	for _, name := range []string{TemplateOhmsLaw, TemplateChemistry} {
		t.Run(name, func(t *testing.T) {
			c, ok := Template(name)
			require.True(t, ok)
			require.NotNil(t, c.Rules)
			require.NotNil(t, c.Rubric)
			require.NotNil(t, c.Rubric.Keywords)
			assert.Positive(t, c.Rules.ExpectedValues.Len())
			assert.Positive(t, c.Rubric.Sections.Len())
			assert.Positive(t, c.Rubric.MinLength)

			// totals match what can be earned
			var rulePts float64
			for _, e := range c.Rules.ExpectedValues.Entries() {
				rulePts += e.Value.Points
			}
			assert.Equal(t, float64(c.Rules.TotalPoints), rulePts)

			var rubricPts float64
			for _, e := range c.Rubric.Sections.Entries() {
				rubricPts += e.Value.Points
			}
			rubricPts += c.Rubric.Keywords.MaxPoints + c.Rubric.MinLengthPoints
			assert.Equal(t, float64(c.Rubric.TotalPoints), rubricPts)
		})
	}

	_, ok := Template("astronomy")
	assert.False(t, ok)
}

func TestTemplate_ReturnsCopies(t *testing.T) {
	a, _ := Template(TemplateOhmsLaw)
	a.Rules.ExpectedValues.Set("voltage", ExpectedValue{Value: 999, Points: 1})
	a.Rubric.Keywords.List[0] = "mutated"

	b, _ := Template(TemplateOhmsLaw)
	ev, _ := b.Rules.ExpectedValues.Get("voltage")
	assert.Equal(t, 12.0, ev.Value)
	assert.Equal(t, "ohm", b.Rubric.Keywords.List[0])
}

func TestOhmsLawTemplate_FullReport(t *testing.T) {
	c, _ := Template(TemplateOhmsLaw)
	report := `Hypothesis: we predict current is proportional to voltage, following Ohm's law.
Procedure: we built a series circuit with a single resistor and stepped the supply voltage while recording the ammeter.
Results: the current rose in a linear fashion. voltage: 12.0 V, current: 2.41 A, resistance = 5.0 ohm.
Conclusion: the measured resistance matches the nominal value and the relationship is linear.`

	res := AutoGrade(report, &c)
	assert.Equal(t, 100.0, res.MaxScore)
	assert.Equal(t, res.MaxScore, res.Score, "feedback: %v / %v", res.Feedback, res.DetailedFeedback)
	assert.Equal(t, 100, res.Percentage)
	assert.Equal(t, TierExcellent, res.OverallFeedback)
}

func TestLoadTemplatesDir(t *testing.T) {
	dir := t.TempDir()
	yml := `rules:
  totalPoints: 20
  expectedValues:
    period:
      value: 2.0
      tolerance: 0.05
      points: 10
    length:
      value: 1.0
      range:
        min: 0
        max: 1.1
      points: 10
rubric:
  totalPoints: 10
  sections:
    Analysis:
      indicators: [analysis]
      points: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pendulum.yaml"), []byte(yml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	loaded, err := LoadTemplatesDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"pendulum"}, loaded)

	c, ok := Template("pendulum")
	require.True(t, ok)
	assert.Equal(t, []string{"period", "length"}, c.Rules.ExpectedValues.Keys())
	ev, _ := c.Rules.ExpectedValues.Get("length")
	require.NotNil(t, ev.Range)
	assert.True(t, IsInRange(0, ev.Range))

	res := AutoGrade("period: 2.02 s, length: 1.05 m. Analysis: the period is independent of mass.", &c)
	assert.Equal(t, 30.0, res.Score)
	assert.Equal(t, 30.0, res.MaxScore)
}

func TestReadTemplateFile_RejectsUnknownFields(t *testing.T) {
	for name, doc := range map[string]string{
		"top level":      "rulez:\n  totalPoints: 5\n",
		"expected value": "rules:\n  expectedValues:\n    pH:\n      value: 7\n      tolerence: 0.5\n      points: 15\n",
		"range":          "rules:\n  expectedValues:\n    pH:\n      value: 7\n      range: {min: 6, maxx: 8}\n",
		"section":        "rubric:\n  sections:\n    Hypothesis:\n      indicator: [hypothesis]\n      points: 10\n",
	} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "bad.yml")
			require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))
			_, err := ReadTemplateFile(p)
			assert.Error(t, err)
		})
	}
}
