// Package memory is an in-memory SummaryAppender for tests and the
// dev backend.
package memory

import (
	"context"
	"sync"

	"paga/internal/core"
	ports "paga/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.MonthSummary
}

var _ ports.SummaryAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendSummary(_ context.Context, row core.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.MonthSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthSummary, len(s.rows))
	copy(out, s.rows)
	return out
}
