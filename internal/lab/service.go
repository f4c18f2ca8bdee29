package lab

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
	"github.com/mind-engage/mindengage-vlab/internal/storage"
	syncx "github.com/mind-engage/mindengage-vlab/internal/sync"
)

var ErrForbidden = errors.New("forbidden")

// EventAppender records domain events; *syncx.EventRepo satisfies it.
type EventAppender interface {
	Append(ctx context.Context, e syncx.Event) error
}

type Option func(*Service)

func WithBlobStore(bs storage.BlobStore) Option { return func(s *Service) { s.blobs = bs } }
func WithEvents(ev EventAppender, siteID string) Option {
	return func(s *Service) { s.events, s.siteID = ev, siteID }
}
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithLogger(l *slog.Logger) Option     { return func(s *Service) { s.log = l } }

// Service ties lab storage to the grading engine.
type Service struct {
	store  Store
	engine *grading.Engine
	blobs  storage.BlobStore
	events EventAppender
	siteID string
	now    func() time.Time
	log    *slog.Logger
}

func NewService(store Store, engine *grading.Engine, opts ...Option) *Service {
	s := &Service{store: store, engine: engine, now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = grading.NewEngine()
	}
	return s
}

func (s *Service) Store() Store { return s.store }

// PutLab creates or replaces a lab, assigning an ID when none is given.
func (s *Service) PutLab(ctx context.Context, l Lab) (Lab, error) {
	if strings.TrimSpace(l.ID) == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = s.now().Unix()
	}
	if err := s.store.PutLab(ctx, l); err != nil {
		return Lab{}, err
	}
	s.emit(ctx, syncx.EventLabUpserted, l.ID, map[string]any{
		"title": l.Title, "lab_type": l.LabType, "created_by": l.CreatedBy,
	})
	return s.store.GetLab(ctx, l.ID)
}

// Submit stores the report, grades it against the lab criteria and archives
// the raw text.
func (s *Service) Submit(ctx context.Context, labID, userID, content string) (Submission, error) {
	l, err := s.store.GetLab(ctx, labID)
	if err != nil {
		return Submission{}, err
	}
	if l.Criteria == nil {
		return Submission{}, ErrLabHasNoCriteria
	}
	sub := Submission{
		ID:          uuid.NewString(),
		LabID:       labID,
		UserID:      userID,
		Content:     content,
		Status:      StatusSubmitted,
		SubmittedAt: s.now().Unix(),
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return Submission{}, err
	}
	return s.grade(ctx, sub, l.Criteria, syncx.EventSubmissionGraded)
}

// Regrade re-runs grading of a stored submission against the lab's current criteria.
func (s *Service) Regrade(ctx context.Context, submissionID string) (Submission, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	l, err := s.store.GetLab(ctx, sub.LabID)
	if err != nil {
		return Submission{}, err
	}
	if l.Criteria == nil {
		return Submission{}, ErrLabHasNoCriteria
	}
	return s.grade(ctx, sub, l.Criteria, syncx.EventSubmissionRegrade)
}

// Preview grades without persisting anything.
func (s *Service) Preview(submission *string, c *grading.Criteria) grading.Result {
	return s.engine.Grade(grading.Input{Submission: submission, Criteria: c})
}

func (s *Service) grade(ctx context.Context, sub Submission, c *grading.Criteria, event string) (Submission, error) {
	content := sub.Content
	res := s.engine.Grade(grading.Input{Submission: &content, Criteria: c})

	reportKey := ""
	if s.blobs != nil && sub.ReportKey == "" {
		key, err := s.blobs.Put(storage.ReportKey(sub.LabID, sub.ID), strings.NewReader(content))
		if err != nil {
			// the grade still counts; the archive copy is best effort
			s.log.WarnContext(ctx, "archive report failed", "submission", sub.ID, "err", err)
		} else {
			reportKey = key
		}
	}

	saved, err := s.store.SaveResult(ctx, sub.ID, res, reportKey)
	if err != nil {
		return Submission{}, err
	}
	s.log.InfoContext(ctx, "submission graded",
		"submission", saved.ID, "lab", saved.LabID, "score", saved.Score,
		"max_score", saved.MaxScore, "percentage", saved.Percentage)
	s.emit(ctx, event, saved.ID, map[string]any{
		"lab_id": saved.LabID, "user_id": saved.UserID,
		"score": saved.Score, "max_score": saved.MaxScore, "percentage": saved.Percentage,
	})
	return saved, nil
}

func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(s.siteID, typ, key, data)
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		s.log.WarnContext(ctx, "event append failed", "type", typ, "key", key, "err", err)
	}
}

// CanView reports whether a user may read the submission.
func CanView(sub Submission, userID string, viewAll bool) bool {
	return viewAll || (userID != "" && sub.UserID == userID)
}
