package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/tally-dev/tally/internal/dedup"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/source"
)

func simpleFormat() model.SourceFormat {
	return model.SourceFormat{
		Name:           "simple",
		Headers:        []string{"Date", "Description", "Amount"},
		DateFormats:    []string{"yyyy-MM-dd"},
		AmountColumn:   "Amount",
		SignConvention: model.PositiveDeposit,
		AccountName:    "Checking",
		ColumnMap:      map[string]string{"Date": "Date", "Description": "Description"},
	}
}

func newTestPipeline(t *testing.T, formats ...model.SourceFormat) *Pipeline {
	t.Helper()
	r, err := NewRegistry(formats)
	require.NoError(t, err)
	return &Pipeline{
		Registry:   r,
		Normalizer: Normalizer{Location: time.UTC},
	}
}

const simpleCSV = "Date,Description,Amount\n" +
	"2024-01-01,Coffee,-3.50\n" +
	"2024-01-01,Coffee,-3.50\n" +
	"2024-01-02,Paycheck,1000.00\n"

func TestPipeline_IngestDedup(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	known := dedup.NewKeySet(nil)

	res := p.Ingest([]source.File{{Name: "jan.csv", Data: []byte(simpleCSV)}}, known)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Coffee", res.Rows[0].Description)
	assert.Equal(t, "[Possible Duplicate] Coffee", res.Rows[1].Description)
	assert.Equal(t, "Paycheck", res.Rows[2].Description)
	assert.Equal(t, "3.50", res.Rows[0].Withdrawal.StringFixed(2))
	assert.Equal(t, "1000.00", res.Rows[2].Deposit.StringFixed(2))

	require.Len(t, res.Files, 1)
	rep := res.Files[0]
	assert.Equal(t, "simple", rep.Format)
	assert.Equal(t, 3, rep.Appended)
	assert.Equal(t, 1, rep.Flagged)
	assert.True(t, rep.Mapped())
	assert.Equal(t, map[string]int{"jan.csv": 3}, res.Totals())
	assert.Equal(t, 2, known.Len())

	// Same file again, seeded from what was just stored.
	again := p.Ingest([]source.File{{Name: "jan.csv", Data: []byte(simpleCSV)}}, dedup.NewKeySet(res.Rows))
	assert.Empty(t, again.Rows)
	assert.Equal(t, 3, again.Files[0].Duplicates)
}

func TestPipeline_LaterFileSeesEarlierFile(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	files := []source.File{
		{Name: "a.csv", Data: []byte("Date,Description,Amount\n2024-01-01,Coffee,-3.50\n")},
		{Name: "b.csv", Data: []byte("Date,Description,Amount\n2024-01-01,Coffee,-3.50\n2024-01-03,Tea,-2.00\n")},
	}

	res := p.Ingest(files, nil)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Coffee", res.Rows[0].Description)
	assert.Equal(t, "Tea", res.Rows[1].Description)
	assert.Equal(t, 1, res.Files[1].Duplicates)
	assert.Zero(t, res.Files[1].Flagged)
}

func TestPipeline_Unmapped(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	res := p.Ingest([]source.File{{Name: "odd.csv", Data: []byte("When,What,How Much\n2024-01-01,x,1\n")}}, nil)

	assert.Empty(t, res.Rows)
	require.Len(t, res.Unmapped, 1)
	u := res.Unmapped[0]
	assert.Equal(t, "odd.csv", u.File)
	assert.Equal(t, []string{"When", "What", "How Much"}, u.Header)
	assert.Contains(t, u.Fingerprint, "sha256:")
	assert.False(t, res.Files[0].Mapped())
	assert.Equal(t, u.Fingerprint, res.Files[0].Fingerprint)
}

func TestPipeline_SkipsShortFiles(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	res := p.Ingest([]source.File{
		{Name: "empty.csv", Data: nil},
		{Name: "header-only.csv", Data: []byte("Date,Description,Amount\n")},
	}, nil)

	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Unmapped)
	assert.True(t, res.Files[0].Skipped)
	assert.True(t, res.Files[1].Skipped)
	assert.False(t, res.Files[1].Mapped())
}

func TestPipeline_RowErrorsAndBlankRows(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	data := "Date,Description,Amount\n" +
		"2024-01-01,Coffee,-3.50\n" +
		",,\n" +
		"garbage,Broken,-1.00\n" +
		"2024-01-02,Tea,-2.00\n"

	res := p.Ingest([]source.File{{Name: "jan.csv", Data: []byte(data)}}, nil)
	require.Len(t, res.Rows, 2)

	rep := res.Files[0]
	require.Len(t, rep.RowErrors, 1)
	assert.Equal(t, 4, rep.RowErrors[0].Row)
	assert.Equal(t, "jan.csv", rep.RowErrors[0].File)
	assert.Equal(t, 1, res.RowErrorCount())

	var rowErr *RowMappingError
	assert.True(t, errors.As(rep.RowErrors[0], &rowErr))
	assert.True(t, rep.Mapped(), "row errors do not fail the file")
}

func TestPipeline_ParseErrorContinues(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	res := p.Ingest([]source.File{
		{Name: "bad.csv", Data: []byte("Date,Description,Amount\n2024-01-01,bad\"quote,-1\n")},
		{Name: "good.csv", Data: []byte("Date,Description,Amount\n2024-01-01,Coffee,-3.50\n")},
	}, nil)

	assert.Error(t, res.Files[0].Err)
	assert.False(t, res.Files[0].Mapped())
	assert.Equal(t, 1, res.Files[1].Appended)
	require.Len(t, res.Rows, 1)
}

func TestPipeline_ByteOrderMarks(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())

	utf8BOM := append([]byte("\xef\xbb\xbf"), simpleCSV...)
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(simpleCSV)
	require.NoError(t, err)

	for name, data := range map[string][]byte{"utf8-bom": utf8BOM, "utf16-le": []byte(utf16)} {
		t.Run(name, func(t *testing.T) {
			res := p.Ingest([]source.File{{Name: name + ".csv", Data: data}}, nil)
			require.Empty(t, res.Unmapped)
			assert.Len(t, res.Rows, 3)
		})
	}
}

func TestPipeline_CustomPrefix(t *testing.T) {
	p := newTestPipeline(t, simpleFormat())
	p.DuplicatePrefix = "DUP? "

	res := p.Ingest([]source.File{{Name: "jan.csv", Data: []byte(simpleCSV)}}, nil)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "DUP? Coffee", res.Rows[1].Description)
}

func TestPipeline_Fixtures(t *testing.T) {
	p := newTestPipeline(t, chaseFormat(), schwabFormat())
	res := p.Ingest([]source.File{
		{Name: "chase_checking.csv", Data: readFixture(t, "chase_checking.csv")},
		{Name: "schwab_brokerage.csv", Data: readFixture(t, "schwab_brokerage.csv")},
	}, nil)

	require.Empty(t, res.Unmapped)
	assert.Equal(t, 6, res.Files[0].Appended)
	assert.Zero(t, res.Files[0].Flagged, "same description on different dates is not a duplicate")
	assert.Equal(t, 4, res.Files[1].Appended)
	assert.Equal(t, 1, res.Files[1].Flagged)

	first := res.Rows[0]
	assert.Equal(t, "2025-01-03", first.Date)
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", first.Description)
	assert.Equal(t, "4.00", first.Withdrawal.StringFixed(2))
	assert.Equal(t, "Chase Checking", first.AccountName)

	check := res.Rows[4]
	assert.Equal(t, "214", check.CheckNumber)

	transfer := res.Rows[6]
	assert.Equal(t, "Schwab Brokerage", transfer.AccountName)
	assert.Equal(t, "1000.00", transfer.Deposit.StringFixed(2))
	assert.Equal(t, "12.34", res.Rows[7].Withdrawal.StringFixed(2))
}

func TestReadHeader(t *testing.T) {
	h, err := ReadHeader([]byte(" Date , Amount\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Amount"}, h)

	h, err = ReadHeader(nil)
	require.NoError(t, err)
	assert.Nil(t, h)
}
