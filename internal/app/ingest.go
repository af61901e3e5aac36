package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tally-dev/tally/internal/alert"
	"github.com/tally-dev/tally/internal/dedup"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/runlog"
	"github.com/tally-dev/tally/internal/table"
)

// Alert titles sent by ingestion.
const (
	TitleUnmapped      = "[CSV Import] Some files could not be mapped"
	TitleArchiveFailed = "[CSV Import] Failed to archive file"
	TitleFatal         = "[CSV Import] Fatal error"
	TitleDone          = "[CSV Import] Done"
	TitleNoFiles       = "[CSV Import] No CSVs found."
)

// maxRowErrorLines caps the row errors listed in one alert.
const maxRowErrorLines = 30

// IngestOptions controls one ingestion run.
type IngestOptions struct {
	// DryRun parses and deduplicates but writes, archives and commits nothing.
	DryRun bool
}

// IngestSummary is what one ingestion run did.
type IngestSummary struct {
	RunID     string
	DryRun    bool
	Files     []importer.FileReport
	Unmapped  []*importer.UnmappedFormatError
	Appended  int
	Flagged   int
	RowErrors int
	Archived  int
}

// Ingest imports every waiting CSV file into the transactions table.
// Problems with single files or rows are alerted and reported in the
// summary; only storage, schema and listing failures are returned.
func (a *App) Ingest(ctx context.Context, opts IngestOptions) (*IngestSummary, error) {
	ctx, runID := a.begin(ctx, runlog.OpIngest)
	log := logger.FromContext(ctx)
	sum := &IngestSummary{RunID: runID, DryRun: opts.DryRun}

	err := a.ingest(ctx, opts, sum)
	if err != nil {
		log.Error().Err(err).Msg("ingest failed")
		alert.Notify(ctx, a.Alerts, TitleFatal, err.Error())
	}
	a.recordRun(ctx, sum.entry(a.now(), err))
	if err == nil && !opts.DryRun && sum.Appended > 0 {
		a.commit(ctx, fmt.Sprintf("ingest: %d new rows", sum.Appended))
	}
	return sum, err
}

func (a *App) ingest(ctx context.Context, opts IngestOptions, sum *IngestSummary) error {
	log := logger.FromContext(ctx)
	name := a.Settings.TransactionsTable

	headers, rows, err := a.Store.ReadAll(ctx, name)
	if err != nil {
		return storageError("read", name, err)
	}
	if len(headers) == 0 {
		headers = table.Columns
		if !opts.DryRun {
			if err := a.Store.EnsureColumns(ctx, name, headers); err != nil {
				return storageError("create", name, err)
			}
			log.Info().Str("table", name).Msg("created transactions table")
		}
	}
	schema := table.NewSchema(headers)
	if err := schema.Require(name, table.Columns); err != nil {
		return err
	}
	known := dedup.NewKeySet(schema.Records(rows))

	files, err := a.Source.ListCSVFiles(ctx)
	if err != nil {
		return fmt.Errorf("listing import files: %w", err)
	}
	if len(files) == 0 {
		log.Info().Msg(TitleNoFiles)
		if a.Settings.NotifySummary {
			alert.Notify(ctx, a.Alerts, TitleNoFiles, "")
		}
		return nil
	}

	p := importer.Pipeline{
		Registry:        a.Registry,
		Normalizer:      importer.Normalizer{Location: a.location(), Now: a.now()},
		DuplicatePrefix: a.Settings.DuplicatePrefix,
	}
	res := p.Ingest(files, known)
	sum.Files = res.Files
	sum.Unmapped = res.Unmapped
	sum.RowErrors = res.RowErrorCount()
	for _, f := range res.Files {
		sum.Flagged += f.Flagged
	}

	if len(res.Rows) > 0 && !opts.DryRun {
		out := make([][]string, len(res.Rows))
		for i, t := range res.Rows {
			out[i] = schema.Row(t)
		}
		if err := a.Store.AppendRows(ctx, name, out); err != nil {
			return storageError("append", name, err)
		}
	}
	sum.Appended = len(res.Rows)

	for i, rep := range res.Files {
		if !rep.Mapped() || opts.DryRun {
			continue
		}
		if err := a.archiver().Archive(ctx, files[i]); err != nil {
			log.Warn().Err(err).Str("file", rep.Name).Msg("archive failed")
			alert.Notify(ctx, a.Alerts, TitleArchiveFailed, rep.Name+"\n\n"+err.Error())
			continue
		}
		sum.Archived++
	}

	a.report(ctx, res)
	return nil
}

// report alerts the problems of res and logs its summary.
func (a *App) report(ctx context.Context, res *importer.Result) {
	log := logger.FromContext(ctx)

	if len(res.Unmapped) > 0 {
		alert.Notify(ctx, a.Alerts, TitleUnmapped, UnmappedDetails(res.Unmapped))
	}
	for _, rep := range res.Files {
		if rep.Err != nil {
			log.Warn().Err(rep.Err).Str("file", rep.Name).Msg("file failed")
			alert.Notify(ctx, a.Alerts, fmt.Sprintf("[CSV Import] Exception for %q", rep.Name), rep.Err.Error())
		}
		if len(rep.RowErrors) > 0 {
			alert.Notify(ctx, a.Alerts, "[CSV Import] Row mapping issues in "+rep.Name, RowErrorDetails(rep.RowErrors))
		}
		if rep.Skipped {
			log.Info().Str("file", rep.Name).Msg("skipped file with no data rows")
		}
	}

	done := DoneDetails(res.Files)
	if done == "" {
		return
	}
	log.Info().Int("rows", len(res.Rows)).Msg(TitleDone + ":\n" + done)
	if a.Settings.NotifySummary {
		alert.Notify(ctx, a.Alerts, TitleDone, done)
	}
}

// UnmappedDetails lists each unmapped file with its fingerprint and header.
func UnmappedDetails(errs []*importer.UnmappedFormatError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = fmt.Sprintf("%s → Unknown header fingerprint: %s\nHeader: [%s]",
			e.File, e.Fingerprint, strings.Join(e.Header, " | "))
	}
	return strings.Join(lines, "\n")
}

// RowErrorDetails lists at most 30 row errors, one per line.
func RowErrorDetails(errs []*importer.RowMappingError) string {
	n := min(len(errs), maxRowErrorLines)
	lines := make([]string, 0, n+1)
	for _, e := range errs[:n] {
		lines = append(lines, fmt.Sprintf("Row %d: %v", e.Row, e.Err))
	}
	if len(errs) > n {
		lines = append(lines, fmt.Sprintf("... and %d more", len(errs)-n))
	}
	return strings.Join(lines, "\n")
}

// DoneDetails lists the new row count of every mapped file.
func DoneDetails(files []importer.FileReport) string {
	var lines []string
	for _, f := range files {
		if f.Mapped() {
			lines = append(lines, fmt.Sprintf("• %s: %d new rows", f.Name, f.Appended))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *IngestSummary) entry(now time.Time, err error) runlog.Entry {
	e := runlog.Entry{
		Timestamp: now,
		RunID:     s.RunID,
		Operation: runlog.OpIngest,
		DryRun:    s.DryRun,
		Files:     len(s.Files),
		Appended:  s.Appended,
		Flagged:   s.Flagged,
		Unmapped:  len(s.Unmapped),
		RowErrors: s.RowErrors,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
