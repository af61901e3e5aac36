package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/model"
)

func TestNewRegistry_Lookup(t *testing.T) {
	r, err := NewRegistry([]model.SourceFormat{chaseFormat(), schwabFormat()})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	fp := header.Fingerprint(chaseHeaders)
	f, ok := r.Lookup(fp)
	require.True(t, ok)
	assert.Equal(t, "chase-checking", f.Name)

	f, ok = r.Lookup(strings.ToUpper(strings.TrimPrefix(fp, header.FingerprintPrefix)))
	require.True(t, ok, "lookup accepts unprefixed, uppercase fingerprints")
	assert.Equal(t, "chase-checking", f.Name)

	_, ok = r.Lookup("sha256:0000")
	assert.False(t, ok)

	names := []string{}
	for _, f := range r.Formats() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"chase-checking", "schwab-brokerage"}, names)
}

func TestNewRegistry_InfersDualColumns(t *testing.T) {
	r, err := NewRegistry([]model.SourceFormat{schwabFormat()})
	require.NoError(t, err)

	f := r.Formats()[0]
	assert.Equal(t, "Withdrawal", f.WithdrawalColumn)
	assert.Equal(t, "Deposit", f.DepositColumn)
	assert.Empty(t, f.AmountColumn)
}

func TestNewRegistry_InfersAmountColumn(t *testing.T) {
	f := chaseFormat()
	f.AmountColumn = ""
	f.SignConvention = "raw_sign"
	f.ColumnMap["Amount"] = "amount"

	r, err := NewRegistry([]model.SourceFormat{f})
	require.NoError(t, err)
	got := r.Formats()[0]
	assert.Equal(t, "Amount", got.AmountColumn)
	assert.Equal(t, model.PositiveDeposit, got.SignConvention)
}

func TestNewRegistry_ExplicitFingerprint(t *testing.T) {
	f := chaseFormat()
	f.Headers = nil
	f.Fingerprint = strings.TrimPrefix(header.Fingerprint(chaseHeaders), header.FingerprintPrefix)

	r, err := NewRegistry([]model.SourceFormat{f})
	require.NoError(t, err)
	_, ok := r.Lookup(header.Fingerprint(chaseHeaders))
	assert.True(t, ok)
}

func TestNewRegistry_Errors(t *testing.T) {
	mismatch := chaseFormat()
	mismatch.Fingerprint = "sha256:abcd"

	noIdentity := chaseFormat()
	noIdentity.Headers = nil

	both := chaseFormat()
	both.WithdrawalColumn = "Withdrawal"

	noDates := chaseFormat()
	noDates.DateFormats = nil

	badSign := chaseFormat()
	badSign.SignConvention = "sideways"

	tests := []struct {
		name    string
		formats []model.SourceFormat
		want    string
	}{
		{"fingerprint mismatch", []model.SourceFormat{mismatch}, "does not match"},
		{"no fingerprint or headers", []model.SourceFormat{noIdentity}, "fingerprint or headers"},
		{"both amount layouts", []model.SourceFormat{both}, "cannot be combined"},
		{"no date formats", []model.SourceFormat{noDates}, "date_format"},
		{"bad sign convention", []model.SourceFormat{badSign}, "sign convention"},
		{"duplicate fingerprint", []model.SourceFormat{chaseFormat(), chaseFormat()}, "share fingerprint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.formats)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRegistry_CopiesInput(t *testing.T) {
	f := chaseFormat()
	r, err := NewRegistry([]model.SourceFormat{f})
	require.NoError(t, err)

	f.ColumnMap["Posting Date"] = "Description"
	got, _ := r.Lookup(header.Fingerprint(chaseHeaders))
	assert.Equal(t, "Date", got.ColumnMap["Posting Date"])
}
