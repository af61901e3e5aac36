package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// csvRecord is one parsed CSV record and the 1-based line it starts on.
type csvRecord struct {
	Line   int
	Fields []string
}

// readCSV decodes data (UTF-8, or UTF-8/UTF-16 with a BOM) and parses it.
// Records may have differing field counts.
func readCSV(data []byte) ([]csvRecord, error) {
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	var records []csvRecord
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, csvRecord{Line: line, Fields: fields})
	}
}

// ReadHeader returns the trimmed header row of data. A file with no records
// has no header.
func ReadHeader(data []byte) ([]string, error) {
	records, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return trimAll(records[0].Fields), nil
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
