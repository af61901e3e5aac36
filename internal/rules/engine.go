package rules

import (
	"github.com/tally-dev/tally/internal/model"
)

// Categorize returns the assignment of the first rule that matches t. Rows
// with a manual category never match. Every pattern a rule has must match
// its field somewhere; amount bounds are inclusive and compare against
// |deposit - withdrawal|.
func Categorize(t model.Transaction, rules []model.Rule) (model.Assignment, bool) {
	if t.HasManualCategory() {
		return model.Assignment{}, false
	}
	magnitude := t.Magnitude()
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.DescriptionRegex != nil && !r.DescriptionRegex.MatchString(t.Description) {
			continue
		}
		if r.AccountRegex != nil && !r.AccountRegex.MatchString(t.AccountName) {
			continue
		}
		if r.TypeRegex != nil && !r.TypeRegex.MatchString(t.Type) {
			continue
		}
		if r.CategoryRegex != nil && !r.CategoryRegex.MatchString(t.Category) {
			continue
		}
		if r.MinAmount != nil && magnitude.LessThan(*r.MinAmount) {
			continue
		}
		if r.MaxAmount != nil && magnitude.GreaterThan(*r.MaxAmount) {
			continue
		}
		return model.Assignment{Category: r.Category, RuleID: r.ID}, true
	}
	return model.Assignment{}, false
}

// Assign categorizes every transaction. Unmatched rows get an empty
// assignment.
func Assign(txns []model.Transaction, rules []model.Rule) []model.Assignment {
	out := make([]model.Assignment, len(txns))
	for i, t := range txns {
		out[i], _ = Categorize(t, rules)
	}
	return out
}
