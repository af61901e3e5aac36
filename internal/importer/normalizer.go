package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// fieldAliases maps alternative canonical field names to the column they fill.
var fieldAliases = map[string]string{
	"financial institution": "institution",
	"account":               "account name",
}

// canonicalField normalizes a column map target: "check_number" and
// "Check Number" are the same field.
func canonicalField(target string) string {
	f := header.Normalize(strings.ReplaceAll(target, "_", " "))
	if alias, ok := fieldAliases[f]; ok {
		return alias
	}
	return f
}

// Normalizer maps raw CSV rows to transactions.
type Normalizer struct {
	// Location is the zone dates are parsed and written in. Nil means UTC.
	Location *time.Location
	// Now is the import timestamp used when a date does not parse. A zero Now
	// makes an unparseable date an error.
	Now time.Time
}

func (n Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

// Normalize converts raw, a data row whose header positions are sourceIndex
// (normalized header -> column), into a Transaction.
func (n Normalizer) Normalize(raw []string, sourceIndex map[string]int, f model.SourceFormat, sourceFile string) (model.Transaction, error) {
	cell := func(sourceHeader string) string {
		if sourceHeader == "" {
			return ""
		}
		i, ok := sourceIndex[header.Normalize(sourceHeader)]
		if !ok || i >= len(raw) {
			return ""
		}
		return strings.TrimSpace(raw[i])
	}

	mapped := make(map[string]string, len(f.ColumnMap))
	for _, src := range sortedKeys(f.ColumnMap) {
		// When several sources feed one field the first non-empty value wins.
		field := canonicalField(f.ColumnMap[src])
		if mapped[field] == "" {
			mapped[field] = cell(src)
		}
	}

	loc := n.location()
	dateValue := mapped["date"]
	date, ok := parseDate(dateValue, f.DateFormats, loc)
	if !ok {
		if n.Now.IsZero() {
			return model.Transaction{}, fmt.Errorf("unparseable date %q", dateValue)
		}
		date = n.Now
	}

	var withdrawal, deposit decimal.Decimal
	if f.DualColumn() {
		withdrawal = money.Parse(cell(f.WithdrawalColumn)).Abs()
		deposit = money.Parse(cell(f.DepositColumn)).Abs()
	} else {
		amount := money.Parse(cell(f.AmountColumn))
		positive := !amount.IsNegative()
		if f.SignConvention == model.PositiveWithdrawal {
			positive = !positive
		}
		if positive {
			deposit = amount.Abs()
		} else {
			withdrawal = amount.Abs()
		}
	}

	account := f.AccountName
	if account == "" {
		account = mapped["account name"]
	}
	institution := f.Institution
	if institution == "" {
		institution = mapped["institution"]
	}

	return model.Transaction{
		AccountName:    account,
		Institution:    institution,
		Date:           date.In(loc).Format("2006-01-02"),
		Type:           mapped["type"],
		Description:    mapped["description"],
		Withdrawal:     withdrawal,
		Deposit:        deposit,
		CheckNumber:    mapped["check number"],
		Category:       mapped["category"],
		SourceFile:     sourceFile,
		ManualCategory: mapped["manual category"],
	}, nil
}
