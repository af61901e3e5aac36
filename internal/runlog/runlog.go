// Package runlog keeps a CSV audit trail of ingestion and categorization runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Operations recorded in the log.
const (
	OpIngest     = "ingest"
	OpCategorize = "categorize"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Operation string
	DryRun    bool
	Files     int
	Appended  int
	Flagged   int
	Unmapped  int
	RowErrors int
	Matched   int // categorize: rows that got a rule
	Error     string
}

// Header is the CSV header of the run log.
const Header = "timestamp,run_id,operation,dry_run,files,appended,flagged,unmapped,row_errors,matched,error"

const (
	numFields    = 11
	colTimestamp = 0
	colRunID     = 1
	colOperation = 2
	colDryRun    = 3
	colFiles     = 4
	colAppended  = 5
	colFlagged   = 6
	colUnmapped  = 7
	colRowErrors = 8
	colMatched   = 9
	colError     = 10
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colOperation] = e.Operation
	row[colDryRun] = strconv.FormatBool(e.DryRun)
	row[colFiles] = strconv.Itoa(e.Files)
	row[colAppended] = strconv.Itoa(e.Appended)
	row[colFlagged] = strconv.Itoa(e.Flagged)
	row[colUnmapped] = strconv.Itoa(e.Unmapped)
	row[colRowErrors] = strconv.Itoa(e.RowErrors)
	row[colMatched] = strconv.Itoa(e.Matched)
	row[colError] = e.Error
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	dry, err := strconv.ParseBool(record[colDryRun])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing dry_run %q: %w", record[colDryRun], err)
	}

	e := Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Operation: record[colOperation],
		DryRun:    dry,
		Error:     record[colError],
	}
	counts := []struct {
		col int
		dst *int
	}{
		{colFiles, &e.Files},
		{colAppended, &e.Appended},
		{colFlagged, &e.Flagged},
		{colUnmapped, &e.Unmapped},
		{colRowErrors, &e.RowErrors},
		{colMatched, &e.Matched},
	}
	for _, c := range counts {
		n, err := strconv.Atoi(record[c.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing column %d %q: %w", c.col+1, record[c.col], err)
		}
		*c.dst = n
	}
	return e, nil
}

// Append writes entries to path, creating the file and header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from path, or nil if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected run log header %q", got)
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
