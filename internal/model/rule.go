package model

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Rule is a compiled categorization rule. Nil patterns and bounds match anything.
type Rule struct {
	ID               string
	Enabled          bool
	Category         string
	DescriptionRegex *regexp.Regexp
	AccountRegex     *regexp.Regexp
	TypeRegex        *regexp.Regexp
	CategoryRegex    *regexp.Regexp
	MinAmount        *decimal.Decimal // inclusive
	MaxAmount        *decimal.Decimal // inclusive
}

// Assignment is the outcome of matching a transaction against the rules.
type Assignment struct {
	Category string
	RuleID   string
}
