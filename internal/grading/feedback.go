package grading

import "strconv"

// Tier messages, keyed by the lowest percentage that earns them.
const (
	TierExcellent      = "Excellent work! Your report meets or exceeds the lab requirements."
	TierGood           = "Good job! Your report covers most of the requirements."
	TierSatisfactory   = "Satisfactory. Review the feedback to strengthen your report."
	TierNeedsWork      = "Needs improvement. Several requirements were not met."
	TierReviewRequired = "Please review the lab requirements and revise your report."
)

// OverallFeedback picks the summary message for a percentage. Boundaries are
// inclusive: 90, 80, 70 and 60.
func OverallFeedback(pct int) string {
	switch {
	case pct >= 90:
		return TierExcellent
	case pct >= 80:
		return TierGood
	case pct >= 70:
		return TierSatisfactory
	case pct >= 60:
		return TierNeedsWork
	default:
		return TierReviewRequired
	}
}

// fmtPoints prints a number without trailing zeros: 15, 2.5, 0.25.
func fmtPoints(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
