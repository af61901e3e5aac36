// Package sheets stores tables as tabs of a Google Sheets spreadsheet. Row 1
// of each tab is the header row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/table"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Store is a table.Adapter over one spreadsheet.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ table.Adapter = (*Store)(nil)

// New creates a Sheets client for spreadsheetID. Credentials come from
// credentialsFile when set, otherwise from Application Default Credentials.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Store, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	opts := []option.ClientOption{option.WithScopes(gsheet.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Store {
	return &Store{svc: svc, spreadsheetID: spreadsheetID}
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnLetter converts a 0-based column index to A1 letters: 0 -> A, 26 -> AA.
func ColumnLetter(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}

func cells(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}

func (s *Store) sheetExists(ctx context.Context, name string) (bool, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return true, nil
		}
	}
	return false, nil
}

// ReadAll reads the whole tab as formatted strings.
func (s *Store) ReadAll(ctx context.Context, name string) ([]string, [][]string, error) {
	exists, err := s.sheetExists(ctx, name)
	if err != nil {
		return nil, nil, table.Wrap("read", name, err)
	}
	if !exists {
		return nil, nil, nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(name)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, nil, table.Wrap("read", name, fmt.Errorf("get values: %w", err))
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	all := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		vals := make([]string, len(row))
		for j, v := range row {
			vals[j] = fmt.Sprint(v)
		}
		all[i] = vals
	}
	return all[0], all[1:], nil
}

// AppendRows appends rows after the last data row of the tab.
func (s *Store) AppendRows(ctx context.Context, name string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: cells(rows)}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quoteSheet(name)+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return table.Wrap("append", name, fmt.Errorf("append values: %w", err))
	}
	return nil
}

// EnsureColumns adds the tab if needed and writes missing header cells to the
// right of the existing header row.
func (s *Store) EnsureColumns(ctx context.Context, name string, headers []string) error {
	exists, err := s.sheetExists(ctx, name)
	if err != nil {
		return table.Wrap("ensure columns", name, err)
	}
	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: name},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return table.Wrap("ensure columns", name, fmt.Errorf("add sheet: %w", err))
		}
	}

	var existing []string
	if exists {
		resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(name)+"!1:1").Context(ctx).Do()
		if err != nil {
			return table.Wrap("ensure columns", name, fmt.Errorf("get header row: %w", err))
		}
		if len(resp.Values) > 0 {
			for _, v := range resp.Values[0] {
				existing = append(existing, fmt.Sprint(v))
			}
		}
	}

	missing := header.Missing(existing, headers)
	if len(missing) == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!%s1", quoteSheet(name), ColumnLetter(len(existing)))
	vr := &gsheet.ValueRange{Values: cells([][]string{missing})}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return table.Wrap("ensure columns", name, fmt.Errorf("write header row: %w", err))
	}
	return nil
}

// WriteColumn writes values down column starting at data row startRow.
func (s *Store) WriteColumn(ctx context.Context, name, column string, startRow int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(name)+"!1:1").Context(ctx).Do()
	if err != nil {
		return table.Wrap("write column", name, fmt.Errorf("get header row: %w", err))
	}
	var headers []string
	if len(resp.Values) > 0 {
		for _, v := range resp.Values[0] {
			headers = append(headers, fmt.Sprint(v))
		}
	}
	col := header.Find(headers, column)
	if col < 0 {
		return table.Wrap("write column", name, fmt.Errorf("column %q not found", column))
	}

	letter := ColumnLetter(col)
	// Data row 0 is sheet row 2.
	first := startRow + 2
	rng := fmt.Sprintf("%s!%s%d:%s%d", quoteSheet(name), letter, first, letter, first+len(values)-1)
	col2d := make([][]string, len(values))
	for i, v := range values {
		col2d[i] = []string{v}
	}
	vr := &gsheet.ValueRange{Values: cells(col2d)}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return table.Wrap("write column", name, fmt.Errorf("update values: %w", err))
	}
	return nil
}
