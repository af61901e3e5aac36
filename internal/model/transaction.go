package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the unified transactions table.
type Transaction struct {
	AccountName    string
	Institution    string
	Date           string          // "yyyy-MM-dd"
	Type           string          // bank transaction type (ACH_DEBIT, etc.)
	Description    string
	Withdrawal     decimal.Decimal // zero if not a withdrawal
	Deposit        decimal.Decimal // zero if not a deposit
	CheckNumber    string
	Category       string // provided by the bank export, if any
	SourceFile     string
	ManualCategory string // non-empty = human override, never re-categorized
}

// SignedAmount returns deposit - withdrawal (deposits positive).
func (t Transaction) SignedAmount() decimal.Decimal {
	return t.Deposit.Sub(t.Withdrawal)
}

// Magnitude returns |deposit - withdrawal|.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.SignedAmount().Abs()
}

// HasManualCategory reports whether a human has categorized the row.
func (t Transaction) HasManualCategory() bool {
	return strings.TrimSpace(t.ManualCategory) != ""
}
