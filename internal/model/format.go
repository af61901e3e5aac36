package model

import (
	"errors"
	"fmt"
	"strings"
)

// SignConvention tells how a single signed amount column splits into
// withdrawal and deposit.
type SignConvention string

const (
	// PositiveDeposit: amount >= 0 is a deposit, negative is a withdrawal.
	PositiveDeposit SignConvention = "positive_deposit"
	// PositiveWithdrawal: amount >= 0 is a withdrawal, negative is a deposit.
	PositiveWithdrawal SignConvention = "positive_withdrawal"
)

// ParseSignConvention resolves a convention name. "raw_sign" and
// "expenses_negative" are accepted as PositiveDeposit; empty defaults to it.
func ParseSignConvention(s string) (SignConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "positive_deposit", "raw_sign", "expenses_negative":
		return PositiveDeposit, nil
	case "positive_withdrawal":
		return PositiveWithdrawal, nil
	default:
		return "", fmt.Errorf("unknown sign convention %q", s)
	}
}

// SourceFormat describes one bank's CSV export layout. It is immutable once
// registered.
type SourceFormat struct {
	Name        string
	Fingerprint string   // "sha256:<hex>"; derived from Headers when empty
	Headers     []string // optional raw header row of the export
	DateFormats []string // primary first

	AmountColumn     string
	SignConvention   SignConvention
	WithdrawalColumn string
	DepositColumn    string

	AccountName string // fixed value, wins over a mapped column
	Institution string // fixed value, wins over a mapped column

	ColumnMap map[string]string // source header -> canonical field
}

// DualColumn reports whether the format has separate withdrawal/deposit columns.
func (f SourceFormat) DualColumn() bool {
	return f.WithdrawalColumn != "" || f.DepositColumn != ""
}

// Validate checks the exactly-one-of amount layout rule and the convention.
func (f SourceFormat) Validate() error {
	if f.AmountColumn != "" && f.DualColumn() {
		return errors.New("amount_column cannot be combined with withdrawal_column/deposit_column")
	}
	if f.AmountColumn == "" && !f.DualColumn() {
		return errors.New("one of amount_column or withdrawal_column/deposit_column is required")
	}
	if f.AmountColumn != "" {
		if _, err := ParseSignConvention(string(f.SignConvention)); err != nil {
			return err
		}
	}
	if len(f.DateFormats) == 0 {
		return errors.New("date_format is required")
	}
	return nil
}
