// Package memory keeps the mirrored roster in process, for development and
// tests.
package memory

import (
	"context"
	"sync"

	"gestaosocial/internal/core"
	ports "gestaosocial/internal/sheets"
)

var _ ports.RosterWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	rows   [][]any
	writes int
	err    error
}

func New() *Store {
	return &Store{}
}

// WriteRoster replaces the stored rows.
func (s *Store) WriteRoster(_ context.Context, families []core.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = ports.RosterValues(families)
	s.writes++
	return nil
}

// FailWith makes subsequent writes return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Rows returns the last written rows, header included.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
