package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/model"
)

// Registry maps header fingerprints to source formats. It is immutable after
// NewRegistry returns.
type Registry struct {
	formats map[string]model.SourceFormat
}

// NewRegistry validates formats and indexes them by fingerprint. A format
// without a fingerprint gets one computed from its Headers; a format with both
// must agree. Two formats may not share a fingerprint.
func NewRegistry(formats []model.SourceFormat) (*Registry, error) {
	r := &Registry{formats: make(map[string]model.SourceFormat, len(formats))}
	for i, f := range formats {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		f, err := prepare(f)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		if other, ok := r.formats[f.Fingerprint]; ok {
			return nil, fmt.Errorf("formats %s and %s share fingerprint %s", other.Name, name, f.Fingerprint)
		}
		f.Name = name
		r.formats[f.Fingerprint] = f
	}
	return r, nil
}

// prepare copies f, resolves its fingerprint and sign convention, and infers
// amount columns from the column map when none are set.
func prepare(f model.SourceFormat) (model.SourceFormat, error) {
	f.Headers = append([]string(nil), f.Headers...)
	f.DateFormats = append([]string(nil), f.DateFormats...)
	cm := make(map[string]string, len(f.ColumnMap))
	for k, v := range f.ColumnMap {
		cm[k] = v
	}
	f.ColumnMap = cm

	fp := header.CanonicalFingerprint(f.Fingerprint)
	switch {
	case fp == "" && len(f.Headers) == 0:
		return f, fmt.Errorf("fingerprint or headers is required")
	case len(f.Headers) > 0:
		computed := header.Fingerprint(f.Headers)
		if fp != "" && fp != computed {
			return f, fmt.Errorf("fingerprint %s does not match headers (%s)", fp, computed)
		}
		fp = computed
	}
	f.Fingerprint = fp

	if f.AmountColumn == "" && !f.DualColumn() {
		for _, src := range sortedKeys(f.ColumnMap) {
			switch canonicalField(f.ColumnMap[src]) {
			case "amount":
				f.AmountColumn = src
			case "withdrawal":
				f.WithdrawalColumn = src
			case "deposit":
				f.DepositColumn = src
			}
		}
		if f.AmountColumn != "" && f.DualColumn() {
			return f, fmt.Errorf("column map targets both Amount and Withdrawal/Deposit")
		}
	}

	if f.AmountColumn != "" {
		sc, err := model.ParseSignConvention(string(f.SignConvention))
		if err != nil {
			return f, err
		}
		f.SignConvention = sc
	}
	return f, nil
}

// Lookup returns the format for fingerprint, with or without its prefix.
func (r *Registry) Lookup(fingerprint string) (model.SourceFormat, bool) {
	f, ok := r.formats[header.CanonicalFingerprint(fingerprint)]
	return f, ok
}

// Formats returns every format sorted by name.
func (r *Registry) Formats() []model.SourceFormat {
	out := make([]model.SourceFormat, 0, len(r.formats))
	for _, f := range r.formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Len returns the number of formats.
func (r *Registry) Len() int { return len(r.formats) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
