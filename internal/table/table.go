// Package table defines the tabular store contract the importer and rule
// engine write through, and the canonical transactions row schema.
package table

import (
	"context"
	"fmt"
)

// Adapter is a tabular store: named tables with a header row and string cells.
type Adapter interface {
	// ReadAll returns the header row and every data row of table. A table
	// that does not exist yields no headers and no rows.
	ReadAll(ctx context.Context, table string) (headers []string, rows [][]string, err error)
	// AppendRows adds rows after the last data row. Rows are aligned to the
	// current header order.
	AppendRows(ctx context.Context, table string, rows [][]string) error
	// EnsureColumns creates the table if needed and appends any of headers
	// that are missing to the right of the existing ones.
	EnsureColumns(ctx context.Context, table string, headers []string) error
	// WriteColumn overwrites column starting at the 0-based data row startRow.
	WriteColumn(ctx context.Context, table, column string, startRow int, values []string) error
}

// Error wraps a failure from an Adapter.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise an *Error.
func Wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Table: table, Err: err}
}

// Pad returns row extended with empty cells to width n.
func Pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
