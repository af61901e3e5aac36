package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// CompilationError reports an invalid pattern or bound in one rule.
type CompilationError struct {
	RuleID string
	Field  string
	Row    int
	Err    error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("rule %q (row %d): invalid %s: %v", e.RuleID, e.Row, e.Field, e.Err)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// Compile turns definitions into rules, in order. Definitions with a blank id
// or category, or a status other than "on", are left out. Any invalid
// pattern or bound fails the whole set: every problem is joined into the
// returned error and no rules are returned.
func Compile(defs []Definition) ([]model.Rule, error) {
	var (
		out  []model.Rule
		errs []error
	)
	for _, d := range defs {
		if d.ID == "" || d.Category == "" || !strings.EqualFold(d.Status, "on") {
			continue
		}

		rule := model.Rule{ID: d.ID, Enabled: true, Category: d.Category}
		fail := func(field string, err error) {
			errs = append(errs, &CompilationError{RuleID: d.ID, Field: field, Row: d.Row, Err: err})
		}

		var err error
		if rule.DescriptionRegex, err = compilePattern(d.DescriptionRegex); err != nil {
			fail("Description Regex", err)
		}
		if rule.AccountRegex, err = compilePattern(d.AccountRegex); err != nil {
			fail("Account Regex", err)
		}
		if rule.TypeRegex, err = compilePattern(d.TypeRegex); err != nil {
			fail("Type Regex", err)
		}
		if rule.CategoryRegex, err = compilePattern(d.CategoryRegex); err != nil {
			fail("Category Regex", err)
		}
		if rule.MinAmount, err = parseBound(d.MinAmount); err != nil {
			fail("Min Amount", err)
		}
		if rule.MaxAmount, err = parseBound(d.MaxAmount); err != nil {
			fail("Max Amount", err)
		}
		out = append(out, rule)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// compilePattern compiles a case-insensitive pattern. Empty means no pattern.
func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + p)
}

// parseBound parses an amount bound. Empty means unbounded.
func parseBound(s string) (*decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil, nil
	}
	if money.HasExponent(s) {
		return nil, fmt.Errorf("exponent notation not allowed: %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &d, nil
}
