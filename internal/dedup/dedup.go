// Package dedup computes composite deduplication keys for transactions and
// tracks which keys are already known.
package dedup

import (
	"strings"

	"github.com/tally-dev/tally/internal/model"
)

// Separator joins the key fields.
const Separator = "|"

// Key returns the composite key of t:
// date|withdrawal|deposit|description|account|type.
// Amounts are fixed to two decimals; text fields are lowercased with
// whitespace collapsed. Category, check number and manual overrides are not
// part of the key.
func Key(t model.Transaction) string {
	return strings.Join([]string{
		strings.TrimSpace(t.Date),
		t.Withdrawal.StringFixed(2),
		t.Deposit.StringFixed(2),
		normalizeText(t.Description),
		normalizeText(t.AccountName),
		normalizeText(t.Type),
	}, Separator)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// KeySet is the working set of known keys for one ingestion run.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet returns a set seeded with the keys of records.
func NewKeySet(records []model.Transaction) *KeySet {
	s := &KeySet{keys: make(map[string]struct{}, len(records))}
	for _, r := range records {
		s.keys[Key(r)] = struct{}{}
	}
	return s
}

// Has reports whether key is known.
func (s *KeySet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Add records key as known.
func (s *KeySet) Add(key string) {
	s.keys[key] = struct{}{}
}

// Len returns the number of known keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}
