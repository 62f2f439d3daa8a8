// Package memory is an in-memory SummaryWriter for tests and local runs
// without spreadsheet credentials.
package memory

import (
	"context"
	"sync"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	ports "github.com/hatauchi-tech/Fukui-BI/internal/sheets"
)

type Store struct {
	mu       sync.Mutex
	byPer    map[string][]core.Summary
	failWith error
}

var _ ports.SummaryWriter = (*Store)(nil)

func New() *Store {
	return &Store{byPer: make(map[string][]core.Summary)}
}

// FailWith makes every subsequent write return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// WriteSummaries replaces the stored rows for the period.
func (s *Store) WriteSummaries(_ context.Context, period core.Period, rows []core.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.byPer[period.String()] = append([]core.Summary(nil), rows...)
	return nil
}

// Rows returns the rows last written for a period.
func (s *Store) Rows(period core.Period) []core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Summary(nil), s.byPer[period.String()]...)
}

// Periods returns how many periods have been written.
func (s *Store) Periods() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPer)
}
