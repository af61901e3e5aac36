// Package memory is an in-process table.Adapter for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/table"
)

// Store keeps tables in memory.
type Store struct {
	mu     sync.Mutex
	tables map[string]*sheet
}

type sheet struct {
	headers []string
	rows    [][]string
}

var _ table.Adapter = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]*sheet)}
}

// Seed replaces a table's contents.
func (s *Store) Seed(name string, headers []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = &sheet{headers: clone(headers), rows: cloneRows(rows)}
}

// ReadAll returns copies of the table's headers and rows.
func (s *Store) ReadAll(_ context.Context, name string) ([]string, [][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, nil, nil
	}
	return clone(t.headers), cloneRows(t.rows), nil
}

// AppendRows appends rows to an existing table.
func (s *Store) AppendRows(_ context.Context, name string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return fmt.Errorf("table %q does not exist", name)
	}
	t.rows = append(t.rows, cloneRows(rows)...)
	return nil
}

// EnsureColumns creates the table or adds missing headers.
func (s *Store) EnsureColumns(_ context.Context, name string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = &sheet{}
		s.tables[name] = t
	}
	t.headers = append(t.headers, header.Missing(t.headers, headers)...)
	return nil
}

// WriteColumn overwrites cells of column from startRow, growing rows as needed.
func (s *Store) WriteColumn(_ context.Context, name, column string, startRow int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return fmt.Errorf("table %q does not exist", name)
	}
	col := header.Find(t.headers, column)
	if col < 0 {
		return fmt.Errorf("column %q not found in %q", column, name)
	}
	for i, v := range values {
		r := startRow + i
		for len(t.rows) <= r {
			t.rows = append(t.rows, nil)
		}
		t.rows[r] = table.Pad(t.rows[r], len(t.headers))
		t.rows[r][col] = v
	}
	return nil
}

func clone(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneRows(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = clone(r)
	}
	return out
}
