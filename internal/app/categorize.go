package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tally-dev/tally/internal/alert"
	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/rules"
	"github.com/tally-dev/tally/internal/runlog"
	"github.com/tally-dev/tally/internal/table"
)

// TitleRulesError is the alert title for a rule set that cannot be used.
const TitleRulesError = "[Rules] applyCategorization error"

// CategorizeOptions selects the transaction rows to categorize.
type CategorizeOptions struct {
	// StartRow is the 0-based data row to start at.
	StartRow int
	// NumRows limits the range; zero or less means through the last row.
	NumRows int
	// DryRun computes assignments without writing them.
	DryRun bool
}

// CategorizeSummary is what one categorization run did.
type CategorizeSummary struct {
	RunID    string
	DryRun   bool
	Rules    int
	StartRow int
	Rows     int // rows evaluated
	Matched  int
}

// Categorize applies the Rules table to a range of transaction rows and
// writes the matched category and rule id of each back to the audit columns.
// Rows with no match get empty cells, so re-running is idempotent.
func (a *App) Categorize(ctx context.Context, opts CategorizeOptions) (*CategorizeSummary, error) {
	ctx, runID := a.begin(ctx, runlog.OpCategorize)
	log := logger.FromContext(ctx)
	sum := &CategorizeSummary{RunID: runID, DryRun: opts.DryRun, StartRow: opts.StartRow}

	err := a.categorize(ctx, opts, sum)
	if err != nil {
		log.Error().Err(err).Msg("categorize failed")
		alert.Notify(ctx, a.Alerts, TitleRulesError, err.Error())
	} else {
		log.Info().Int("rules", sum.Rules).Int("rows", sum.Rows).Int("matched", sum.Matched).Msg("categorized")
	}
	a.recordRun(ctx, sum.entry(a.now(), err))
	if err == nil && !opts.DryRun && sum.Rows > 0 {
		a.commit(ctx, fmt.Sprintf("categorize: %d of %d rows matched", sum.Matched, sum.Rows))
	}
	return sum, err
}

func (a *App) categorize(ctx context.Context, opts CategorizeOptions, sum *CategorizeSummary) error {
	if opts.StartRow < 0 {
		return fmt.Errorf("start row %d is negative", opts.StartRow)
	}

	rulesTable := a.Settings.RulesTable
	ruleHeaders, ruleRows, err := a.Store.ReadAll(ctx, rulesTable)
	if err != nil {
		return storageError("read", rulesTable, err)
	}
	var compiled []model.Rule
	if len(ruleHeaders) > 0 {
		defs, err := rules.ParseDefinitions(ruleHeaders, ruleRows)
		if err != nil {
			return err
		}
		if compiled, err = rules.Compile(defs); err != nil {
			return err
		}
	}
	sum.Rules = len(compiled)

	name := a.Settings.TransactionsTable
	headers, rows, err := a.Store.ReadAll(ctx, name)
	if err != nil {
		return storageError("read", name, err)
	}
	if len(headers) == 0 {
		return nil
	}
	schema := table.NewSchema(headers)
	if err := schema.Require(name, table.Columns); err != nil {
		return err
	}

	start, end := rowRange(opts, len(rows))
	if start >= end {
		return nil
	}
	assignments := rules.Assign(schema.Records(rows[start:end]), compiled)
	sum.Rows = len(assignments)

	categories := make([]string, len(assignments))
	ids := make([]string, len(assignments))
	for i, as := range assignments {
		categories[i] = as.Category
		ids[i] = as.RuleID
		if as.RuleID != "" {
			sum.Matched++
		}
	}
	if opts.DryRun {
		return nil
	}

	if err := a.Store.EnsureColumns(ctx, name, table.AuditColumns); err != nil {
		return storageError("ensure columns", name, err)
	}
	if err := a.Store.WriteColumn(ctx, name, table.ColCategoryByRule, start, categories); err != nil {
		return storageError("write", name, err)
	}
	if err := a.Store.WriteColumn(ctx, name, table.ColMatchedRuleID, start, ids); err != nil {
		return storageError("write", name, err)
	}
	return nil
}

// rowRange clamps the options' range to n data rows.
func rowRange(opts CategorizeOptions, n int) (start, end int) {
	start = min(opts.StartRow, n)
	end = n
	if opts.NumRows > 0 {
		end = min(start+opts.NumRows, n)
	}
	return start, end
}

func (s *CategorizeSummary) entry(now time.Time, err error) runlog.Entry {
	e := runlog.Entry{
		Timestamp: now,
		RunID:     s.RunID,
		Operation: runlog.OpCategorize,
		DryRun:    s.DryRun,
		Matched:   s.Matched,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
