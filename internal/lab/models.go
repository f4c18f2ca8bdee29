package lab

import (
	"errors"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrLabHasNoCriteria = errors.New("lab has no grading criteria")
)

// Submission statuses.
const (
	StatusSubmitted = "submitted" // stored, not graded yet
	StatusGraded    = "graded"
)

type Lab struct {
	ID          string            `json:"id"`
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description,omitempty"`
	LabType     string            `json:"lab_type,omitempty"` // ohmsLaw, chemistry, ...
	Criteria    *grading.Criteria `json:"criteria,omitempty"`
	CreatedBy   string            `json:"created_by,omitempty"`
	CreatedAt   int64             `json:"created_at,omitempty"`
}

// StudentView hides the grading criteria, which carry the expected answers.
func (l Lab) StudentView() Lab {
	l.Criteria = nil
	return l
}

type Submission struct {
	ID          string          `json:"id"`
	LabID       string          `json:"lab_id"`
	UserID      string          `json:"user_id"`
	Content     string          `json:"content"`
	Status      string          `json:"status"`
	Score       float64         `json:"score"`
	MaxScore    float64         `json:"max_score"`
	Percentage  int             `json:"percentage"`
	Result      *grading.Result `json:"result,omitempty"`
	ReportKey   string          `json:"report_key,omitempty"`
	SubmittedAt int64           `json:"submitted_at"`
	GradedAt    int64           `json:"graded_at,omitempty"`
}

// detached returns a copy of s that shares no memory with the receiver.
func (s Submission) detached() Submission {
	if s.Result != nil {
		r := s.Result.Clone()
		s.Result = &r
	}
	return s
}

// applyResult copies a grading result onto the submission.
func (s *Submission) applyResult(res grading.Result) {
	r := res.Clone()
	s.Result = &r
	s.Score = res.Score
	s.MaxScore = res.MaxScore
	s.Percentage = res.Percentage
	s.Status = StatusGraded
	s.GradedAt = res.GradedAt.Unix()
}
