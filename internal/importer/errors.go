package importer

import (
	"fmt"
	"strings"
)

// UnmappedFormatError reports a file whose header matches no registered
// source format.
type UnmappedFormatError struct {
	File        string
	Fingerprint string
	Header      []string
}

func (e *UnmappedFormatError) Error() string {
	return fmt.Sprintf("%s: no source format for fingerprint %s (header: %s)",
		e.File, e.Fingerprint, strings.Join(e.Header, ", "))
}

// RowMappingError reports a row that could not be normalized. Row is the
// 1-based CSV line number.
type RowMappingError struct {
	File string
	Row  int
	Err  error
}

func (e *RowMappingError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.File, e.Row, e.Err)
}

func (e *RowMappingError) Unwrap() error { return e.Err }
