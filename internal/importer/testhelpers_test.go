package importer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
)

var chaseHeaders = []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"}

func chaseFormat() model.SourceFormat {
	return model.SourceFormat{
		Name:           "chase-checking",
		Headers:        chaseHeaders,
		DateFormats:    []string{"MM/dd/yyyy"},
		AmountColumn:   "Amount",
		SignConvention: model.PositiveDeposit,
		AccountName:    "Chase Checking",
		Institution:    "Chase",
		ColumnMap: map[string]string{
			"Posting Date":    "Date",
			"Description":     "Description",
			"Type":            "Type",
			"Check or Slip #": "check_number",
		},
	}
}

func schwabFormat() model.SourceFormat {
	return model.SourceFormat{
		Name:        "schwab-brokerage",
		Headers:     []string{"Date", "Action", "Symbol", "Description", "Withdrawal", "Deposit"},
		DateFormats: []string{"MM/dd/yyyy"},
		AccountName: "Schwab Brokerage",
		Institution: "Schwab",
		ColumnMap: map[string]string{
			"Date":        "Date",
			"Action":      "Type",
			"Description": "Description",
			"Withdrawal":  "Withdrawal",
			"Deposit":     "Deposit",
		},
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name)
	require.NoError(t, err)
	return data
}
