package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"wrapped/internal/core"
	"wrapped/internal/source"
)

var _ source.RowReader = (*Store)(nil)

// Store holds rows in memory. It backs tests and piped input.
type Store struct {
	mu    sync.Mutex
	rows  []core.RawRow
	err   error
	reads int
}

func New(rows ...core.RawRow) *Store {
	s := &Store{}
	for _, r := range rows {
		s.Append(r)
	}
	return s
}

// Append stores a copy of the row and returns a synthetic row reference.
func (s *Store) Append(row core.RawRow) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, maps.Clone(row))
	return fmt.Sprintf("mem:%d", len(s.rows))
}

// FailWith makes subsequent reads return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reads reports how many times ReadRows was called.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Store) Describe() string { return "memory" }

func (s *Store) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]core.RawRow, len(s.rows))
	for i, r := range s.rows {
		out[i] = maps.Clone(r)
	}
	return out, nil
}
