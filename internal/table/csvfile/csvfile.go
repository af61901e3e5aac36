// Package csvfile stores each table as <dir>/<table>.csv.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/table"
)

// Store is a directory of CSV tables.
type Store struct {
	dir string
}

var _ table.Adapter = (*Store)(nil)

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file that holds name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// ReadAll reads the header and data rows of name.
func (s *Store) ReadAll(_ context.Context, name string) ([]string, [][]string, error) {
	f, err := os.Open(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", s.Path(name), err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", s.Path(name), err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// AppendRows appends rows to an existing table file.
func (s *Store) AppendRows(_ context.Context, name string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	path := s.Path(name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := writeRecords(f, rows); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// EnsureColumns creates the file or appends missing headers.
func (s *Store) EnsureColumns(ctx context.Context, name string, headers []string) error {
	existing, rows, err := s.ReadAll(ctx, name)
	if err != nil {
		return err
	}
	missing := header.Missing(existing, headers)
	if len(missing) == 0 && existing != nil {
		return nil
	}
	return s.rewrite(name, append(existing, missing...), rows)
}

// WriteColumn overwrites a column starting at data row startRow.
func (s *Store) WriteColumn(ctx context.Context, name, column string, startRow int, values []string) error {
	headers, rows, err := s.ReadAll(ctx, name)
	if err != nil {
		return err
	}
	col := header.Find(headers, column)
	if col < 0 {
		return fmt.Errorf("column %q not found in %s", column, s.Path(name))
	}
	for i, v := range values {
		r := startRow + i
		for len(rows) <= r {
			rows = append(rows, nil)
		}
		rows[r] = table.Pad(rows[r], len(headers))
		rows[r][col] = v
	}
	return s.rewrite(name, headers, rows)
}

// rewrite replaces the table file atomically via a temp file and rename.
func (s *Store) rewrite(name string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating table dir: %w", err)
	}

	path := s.Path(name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	all := make([][]string, 0, len(rows)+1)
	all = append(all, headers)
	all = append(all, rows...)
	if err := writeRecords(f, all); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func writeRecords(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	for i, rec := range records {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
