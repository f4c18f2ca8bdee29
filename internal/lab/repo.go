package lab

import (
	"context"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
)

type ListOpts struct {
	Q       string // title substring
	LabType string
	Limit   int
	Offset  int
}

type SubmissionListOpts struct {
	LabID  string
	UserID string
	Status string // submitted|graded
	Limit  int
	Offset int
}

type Store interface {
	PutLab(ctx context.Context, l Lab) error
	GetLab(ctx context.Context, id string) (Lab, error)
	ListLabs(ctx context.Context, opts ListOpts) ([]Lab, error)

	CreateSubmission(ctx context.Context, s Submission) error
	SaveResult(ctx context.Context, submissionID string, res grading.Result, reportKey string) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error)
}

func normLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 200:
		return 200
	}
	return limit
}
