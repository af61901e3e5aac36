// Package source defines where import CSV files come from and where they go
// once they have been ingested.
package source

import "context"

// File is one CSV file read from a source.
type File struct {
	// ID identifies the file to its source: a path, Drive file id or object name.
	ID   string
	Name string
	Data []byte
}

// Lister lists the CSV files waiting to be ingested, with their contents.
type Lister interface {
	ListCSVFiles(ctx context.Context) ([]File, error)
}

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks . Archiver

// Archiver moves an ingested file out of the way so it is not listed again.
type Archiver interface {
	Archive(ctx context.Context, f File) error
}

// NopArchiver leaves files where they are.
type NopArchiver struct{}

// Archive does nothing.
func (NopArchiver) Archive(context.Context, File) error { return nil }
