package lab

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
)

type memoryStore struct {
	mu          sync.RWMutex
	labs        map[string]Lab
	submissions map[string]Submission
}

// NewInMemoryStore is a Store for tests and single-process dev runs.
func NewInMemoryStore() Store {
	return &memoryStore{
		labs:        map[string]Lab{},
		submissions: map[string]Submission{},
	}
}

func (m *memoryStore) PutLab(_ context.Context, l Lab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.Criteria != nil {
		c := l.Criteria.Clone()
		l.Criteria = &c
	}
	if prev, ok := m.labs[l.ID]; ok {
		l.CreatedAt = prev.CreatedAt
	}
	m.labs[l.ID] = l
	return nil
}

func (m *memoryStore) GetLab(_ context.Context, id string) (Lab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.labs[id]
	if !ok {
		return Lab{}, ErrNotFound
	}
	if l.Criteria != nil {
		c := l.Criteria.Clone()
		l.Criteria = &c
	}
	return l, nil
}

func (m *memoryStore) ListLabs(_ context.Context, opts ListOpts) ([]Lab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]Lab, 0, len(m.labs))
	for _, l := range m.labs {
		if q != "" && !strings.Contains(strings.ToLower(l.Title), q) {
			continue
		}
		if opts.LabType != "" && l.LabType != opts.LabType {
			continue
		}
		l.Criteria = nil
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Offset, opts.Limit), nil
}

func (m *memoryStore) CreateSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.labs[s.LabID]; !ok {
		return ErrNotFound
	}
	m.submissions[s.ID] = s.detached()
	return nil
}

func (m *memoryStore) SaveResult(_ context.Context, id string, res grading.Result, reportKey string) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	s.applyResult(res)
	if reportKey != "" {
		s.ReportKey = reportKey
	}
	m.submissions[id] = s
	return s.detached(), nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s.detached(), nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, opts SubmissionListOpts) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Submission, 0)
	for _, s := range m.submissions {
		if opts.LabID != "" && s.LabID != opts.LabID {
			continue
		}
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && s.Status != opts.Status {
			continue
		}
		out = append(out, s.detached())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt != out[j].SubmittedAt {
			return out[i].SubmittedAt > out[j].SubmittedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Offset, opts.Limit), nil
}

func page[T any](items []T, offset, limit int) []T {
	limit = normLimit(limit)
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
