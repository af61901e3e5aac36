// Package sqlite stores tables in a SQLite database. Every table column is
// TEXT and row order follows rowid.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/table"

	_ "modernc.org/sqlite"
)

// Store is a table.Adapter backed by a SQLite file.
type Store struct {
	db *sql.DB
}

var _ table.Adapter = (*Store)(nil)

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// columns returns the table's column names in declaration order, or nil if
// the table does not exist.
func (s *Store) columns(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", name)
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ReadAll returns the column names and every row ordered by rowid.
func (s *Store) ReadAll(ctx context.Context, name string) ([]string, [][]string, error) {
	cols, err := s.columns(ctx, name)
	if err != nil {
		return nil, nil, table.Wrap("read", name, err)
	}
	if len(cols) == 0 {
		return nil, nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quote(name)+" ORDER BY rowid")
	if err != nil {
		return nil, nil, table.Wrap("read", name, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, table.Wrap("read", name, err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, table.Wrap("read", name, err)
	}
	return cols, out, nil
}

// AppendRows inserts rows in a single transaction. Short rows leave trailing
// columns empty.
func (s *Store) AppendRows(ctx context.Context, name string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	cols, err := s.columns(ctx, name)
	if err != nil {
		return table.Wrap("append", name, err)
	}
	if len(cols) == 0 {
		return table.Wrap("append", name, fmt.Errorf("table does not exist"))
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return table.Wrap("append", name, err)
	}
	defer tx.Rollback()

	for i, row := range rows {
		if len(row) > len(cols) {
			return table.Wrap("append", name, fmt.Errorf("row %d has %d cells, table has %d columns", i+1, len(row), len(cols)))
		}
		row = table.Pad(row, len(cols))
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return table.Wrap("append", name, fmt.Errorf("row %d: %w", i+1, err))
		}
	}
	return table.Wrap("append", name, tx.Commit())
}

// EnsureColumns creates the table or adds the missing columns.
func (s *Store) EnsureColumns(ctx context.Context, name string, headers []string) error {
	cols, err := s.columns(ctx, name)
	if err != nil {
		return table.Wrap("ensure columns", name, err)
	}

	if len(cols) == 0 {
		defs := make([]string, len(headers))
		for i, h := range headers {
			defs[i] = quote(h) + " TEXT NOT NULL DEFAULT ''"
		}
		stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))
		_, err := s.db.ExecContext(ctx, stmt)
		return table.Wrap("ensure columns", name, err)
	}

	for _, h := range header.Missing(cols, headers) {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT ''", quote(name), quote(h))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return table.Wrap("ensure columns", name, err)
		}
	}
	return nil
}

// WriteColumn sets column for consecutive rows starting at data row startRow.
// Rows past the end of the table are inserted.
func (s *Store) WriteColumn(ctx context.Context, name, column string, startRow int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cols, err := s.columns(ctx, name)
	if err != nil {
		return table.Wrap("write column", name, err)
	}
	col := header.Find(cols, column)
	if col < 0 {
		return table.Wrap("write column", name, fmt.Errorf("column %q not found", column))
	}

	ids, err := s.rowIDs(ctx, name)
	if err != nil {
		return table.Wrap("write column", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return table.Wrap("write column", name, err)
	}
	defer tx.Rollback()

	update := fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = ?", quote(name), quote(cols[col]))
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", quote(name), quote(cols[col]))
	for i, v := range values {
		r := startRow + i
		if r < len(ids) {
			if _, err := tx.ExecContext(ctx, update, v, ids[r]); err != nil {
				return table.Wrap("write column", name, err)
			}
			continue
		}
		// Fill any gap so the value lands at the requested position.
		for n := len(ids); n < r; n++ {
			if _, err := tx.ExecContext(ctx, insert, ""); err != nil {
				return table.Wrap("write column", name, err)
			}
			ids = append(ids, -1)
		}
		if _, err := tx.ExecContext(ctx, insert, v); err != nil {
			return table.Wrap("write column", name, err)
		}
		ids = append(ids, -1)
	}
	return table.Wrap("write column", name, tx.Commit())
}

func (s *Store) rowIDs(ctx context.Context, name string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT rowid FROM "+quote(name)+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
