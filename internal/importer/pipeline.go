// Package importer matches bank CSV exports to their source format,
// normalizes their rows into transactions and filters duplicates.
package importer

import (
	"fmt"

	"github.com/tally-dev/tally/internal/dedup"
	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/source"
)

// DefaultDuplicatePrefix marks a row repeated within one file.
const DefaultDuplicatePrefix = "[Possible Duplicate] "

// Pipeline ingests a batch of files.
type Pipeline struct {
	Registry        *Registry
	Normalizer      Normalizer
	DuplicatePrefix string // DefaultDuplicatePrefix when empty
}

// FileReport is the outcome for one file.
type FileReport struct {
	Name        string
	Fingerprint string
	Format      string // empty when unmapped
	Skipped     bool   // fewer than two rows
	Appended    int
	Duplicates  int // rows already known, dropped
	Flagged     int // rows repeated within the file, kept with the prefix
	RowErrors   []*RowMappingError
	Err         error // file-level failure
}

// Mapped reports whether the file was fully processed against a format.
func (r FileReport) Mapped() bool {
	return r.Format != "" && r.Err == nil && !r.Skipped
}

// Result is the outcome of one Ingest call.
type Result struct {
	// Rows are the accepted transactions in file order, then row order.
	Rows []model.Transaction
	// Files has one report per input file, in input order.
	Files    []FileReport
	Unmapped []*UnmappedFormatError
}

// Totals returns the accepted row count per file name.
func (r *Result) Totals() map[string]int {
	out := make(map[string]int, len(r.Files))
	for _, f := range r.Files {
		out[f.Name] += f.Appended
	}
	return out
}

// RowErrorCount returns the number of rows skipped with errors.
func (r *Result) RowErrorCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.RowErrors)
	}
	return n
}

func (p *Pipeline) prefix() string {
	if p.DuplicatePrefix == "" {
		return DefaultDuplicatePrefix
	}
	return p.DuplicatePrefix
}

// Ingest processes files in order against the keys already known. known is
// updated with the keys each file contributes once that file finishes, so a
// later file in the batch sees earlier files as history. A nil known starts
// empty. A failure in one file or row never stops the others.
func (p *Pipeline) Ingest(files []source.File, known *dedup.KeySet) *Result {
	if known == nil {
		known = dedup.NewKeySet(nil)
	}
	res := &Result{Files: make([]FileReport, 0, len(files))}
	for _, f := range files {
		rep := p.ingestFile(f, known, res)
		res.Files = append(res.Files, rep)
	}
	return res
}

func (p *Pipeline) ingestFile(f source.File, known *dedup.KeySet, res *Result) FileReport {
	rep := FileReport{Name: f.Name}

	records, err := readCSV(f.Data)
	if err != nil {
		rep.Err = fmt.Errorf("parsing %s: %w", f.Name, err)
		return rep
	}
	if len(records) < 2 {
		rep.Skipped = true
		return rep
	}

	headers := trimAll(records[0].Fields)
	rep.Fingerprint = header.Fingerprint(headers)
	format, ok := p.Registry.Lookup(rep.Fingerprint)
	if !ok {
		res.Unmapped = append(res.Unmapped, &UnmappedFormatError{
			File:        f.Name,
			Fingerprint: rep.Fingerprint,
			Header:      headers,
		})
		return rep
	}
	rep.Format = format.Name

	index := header.Index(headers)
	seen := make(map[string]struct{})
	for _, rec := range records[1:] {
		if blank(rec.Fields) {
			continue
		}
		txn, err := p.Normalizer.Normalize(rec.Fields, index, format, f.Name)
		if err != nil {
			rep.RowErrors = append(rep.RowErrors, &RowMappingError{File: f.Name, Row: rec.Line, Err: err})
			continue
		}

		key := dedup.Key(txn)
		if known.Has(key) {
			rep.Duplicates++
			continue
		}
		if _, dup := seen[key]; dup {
			txn.Description = p.prefix() + txn.Description
			rep.Flagged++
		}
		seen[key] = struct{}{}

		res.Rows = append(res.Rows, txn)
		rep.Appended++
	}

	for key := range seen {
		known.Add(key)
	}
	return rep
}
