package table

import (
	"fmt"
	"strings"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// Canonical column names of the transactions table.
const (
	ColAccountName    = "Account Name"
	ColInstitution    = "Institution"
	ColDate           = "Date"
	ColType           = "Type"
	ColDescription    = "Description"
	ColWithdrawal     = "Withdrawal"
	ColDeposit        = "Deposit"
	ColCheckNumber    = "Check Number"
	ColCategory       = "Category"
	ColSourceFile     = "Source File"
	ColManualCategory = "Manual Category"

	ColCategoryByRule = "Category by Rule"
	ColMatchedRuleID  = "Matched Rule ID"
)

// Columns are the required transactions columns, in creation order.
var Columns = []string{
	ColAccountName,
	ColInstitution,
	ColDate,
	ColType,
	ColDescription,
	ColWithdrawal,
	ColDeposit,
	ColCheckNumber,
	ColCategory,
	ColSourceFile,
	ColManualCategory,
}

// AuditColumns are written by the rule engine and created on demand.
var AuditColumns = []string{ColCategoryByRule, ColMatchedRuleID}

// SchemaError reports required columns missing from a table.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s missing required column(s): %s", e.Table, strings.Join(e.Missing, ", "))
}

// Schema maps canonical columns to positions in one table's header row.
type Schema struct {
	headers []string
	index   map[string]int
}

// NewSchema builds a Schema over headers.
func NewSchema(headers []string) *Schema {
	return &Schema{headers: headers, index: header.Index(headers)}
}

// Headers returns the header row the schema was built from.
func (s *Schema) Headers() []string { return s.headers }

// Require returns a *SchemaError naming any of required that are absent.
func (s *Schema) Require(tableName string, required []string) error {
	if missing := header.Missing(s.headers, required); len(missing) > 0 {
		return &SchemaError{Table: tableName, Missing: missing}
	}
	return nil
}

// Position returns the column index of name, or -1.
func (s *Schema) Position(name string) int {
	if i, ok := s.index[header.Normalize(name)]; ok {
		return i
	}
	return -1
}

func (s *Schema) cell(row []string, name string) string {
	i := s.Position(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Record converts a stored row to a Transaction. Missing cells are empty and
// unparseable amounts are zero.
func (s *Schema) Record(row []string) model.Transaction {
	return model.Transaction{
		AccountName:    s.cell(row, ColAccountName),
		Institution:    s.cell(row, ColInstitution),
		Date:           s.cell(row, ColDate),
		Type:           s.cell(row, ColType),
		Description:    s.cell(row, ColDescription),
		Withdrawal:     money.Parse(s.cell(row, ColWithdrawal)),
		Deposit:        money.Parse(s.cell(row, ColDeposit)),
		CheckNumber:    s.cell(row, ColCheckNumber),
		Category:       s.cell(row, ColCategory),
		SourceFile:     s.cell(row, ColSourceFile),
		ManualCategory: s.cell(row, ColManualCategory),
	}
}

// Row converts t to a row aligned with the schema's header order. Columns the
// record does not own are left empty.
func (s *Schema) Row(t model.Transaction) []string {
	row := make([]string, len(s.headers))
	set := func(name, value string) {
		if i := s.Position(name); i >= 0 {
			row[i] = value
		}
	}
	set(ColAccountName, t.AccountName)
	set(ColInstitution, t.Institution)
	set(ColDate, t.Date)
	set(ColType, t.Type)
	set(ColDescription, t.Description)
	set(ColWithdrawal, money.Format(t.Withdrawal))
	set(ColDeposit, money.Format(t.Deposit))
	set(ColCheckNumber, t.CheckNumber)
	set(ColCategory, t.Category)
	set(ColSourceFile, t.SourceFile)
	set(ColManualCategory, t.ManualCategory)
	return row
}

// Records converts every row.
func (s *Schema) Records(rows [][]string) []model.Transaction {
	out := make([]model.Transaction, len(rows))
	for i, r := range rows {
		out[i] = s.Record(r)
	}
	return out
}
