// Package rules loads categorization rules from the Rules table, compiles
// them and applies them to transactions.
package rules

import (
	"fmt"
	"strings"

	"github.com/tally-dev/tally/internal/header"
)

// Definition is one uncompiled row of the Rules table.
type Definition struct {
	Row              int // 1-based data row in the Rules table
	ID               string
	Status           string
	Category         string
	DescriptionRegex string
	AccountRegex     string
	TypeRegex        string
	CategoryRegex    string
	MinAmount        string
	MaxAmount        string
}

type column struct {
	names    []string // accepted header names, preferred first
	required bool
	set      func(d *Definition, v string)
}

var columns = []column{
	{[]string{"Rule ID"}, true, func(d *Definition, v string) { d.ID = v }},
	{[]string{"ON", "Status"}, true, func(d *Definition, v string) { d.Status = v }},
	{[]string{"Category", "Category Assigned by Rule"}, true, func(d *Definition, v string) { d.Category = v }},
	{[]string{"Description Regex"}, false, func(d *Definition, v string) { d.DescriptionRegex = v }},
	{[]string{"Account Regex", "AccountName Regex", "Account Name Regex"}, false, func(d *Definition, v string) { d.AccountRegex = v }},
	{[]string{"Type Regex"}, false, func(d *Definition, v string) { d.TypeRegex = v }},
	{[]string{"Category Regex"}, false, func(d *Definition, v string) { d.CategoryRegex = v }},
	{[]string{"Min Amount"}, false, func(d *Definition, v string) { d.MinAmount = v }},
	{[]string{"Max Amount"}, false, func(d *Definition, v string) { d.MaxAmount = v }},
}

// ParseDefinitions reads the Rules table. Blank rows are skipped. A missing
// required column is an error naming every missing column.
func ParseDefinitions(headers []string, rows [][]string) ([]Definition, error) {
	idx := header.Index(headers)

	positions := make([]int, len(columns))
	var missing []string
	for i, c := range columns {
		positions[i] = -1
		for _, name := range c.names {
			if p, ok := idx[header.Normalize(name)]; ok {
				positions[i] = p
				break
			}
		}
		if positions[i] < 0 && c.required {
			missing = append(missing, c.names[0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("rules table missing required column(s): %s", strings.Join(missing, ", "))
	}

	var defs []Definition
	for r, row := range rows {
		if blankRow(row) {
			continue
		}
		d := Definition{Row: r + 1}
		for i, c := range columns {
			p := positions[i]
			if p < 0 || p >= len(row) {
				continue
			}
			c.set(&d, strings.TrimSpace(row[p]))
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Headers returns the preferred header row of a new Rules table.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.names[0]
	}
	return out
}
