// Package gcs reads import CSV files from a Cloud Storage bucket prefix.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tally-dev/tally/internal/source"
)

// Source lists <Bucket>/<Prefix>*.csv and archives under ArchivePrefix.
type Source struct {
	client        *storage.Client
	Bucket        string
	Prefix        string
	ArchivePrefix string
}

var (
	_ source.Lister   = (*Source)(nil)
	_ source.Archiver = (*Source)(nil)
)

// New creates a storage client for bucket.
func New(ctx context.Context, bucket, prefix, archivePrefix string, opts ...option.ClientOption) (*Source, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("missing gcs bucket")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Source{client: client, Bucket: bucket, Prefix: prefix, ArchivePrefix: archivePrefix}, nil
}

// Close releases the storage client.
func (s *Source) Close() error {
	return s.client.Close()
}

// isImportObject reports whether name is a CSV directly under prefix and not
// already archived.
func isImportObject(name, prefix, archivePrefix string) bool {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return false
	}
	if archivePrefix != "" && strings.HasPrefix(name, archivePrefix) {
		return false
	}
	rest := strings.TrimPrefix(name, prefix)
	return !strings.Contains(rest, "/")
}

// archiveName returns the object name f is copied to on archive.
func archiveName(name, archivePrefix string) string {
	return archivePrefix + path.Base(name)
}

// ListCSVFiles lists and downloads the CSV objects under Prefix.
func (s *Source) ListCSVFiles(ctx context.Context) ([]source.File, error) {
	bkt := s.client.Bucket(s.Bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: s.Prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gcs objects: %w", err)
		}
		if isImportObject(attrs.Name, s.Prefix, s.ArchivePrefix) {
			names = append(names, attrs.Name)
		}
	}
	sort.Strings(names)

	files := make([]source.File, 0, len(names))
	for _, name := range names {
		data, err := s.read(ctx, bkt.Object(name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		files = append(files, source.File{ID: name, Name: path.Base(name), Data: data})
	}
	return files, nil
}

func (s *Source) read(ctx context.Context, obj *storage.ObjectHandle) ([]byte, error) {
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Archive copies f under ArchivePrefix and deletes the original.
func (s *Source) Archive(ctx context.Context, f source.File) error {
	if s.ArchivePrefix == "" {
		return nil
	}
	bkt := s.client.Bucket(s.Bucket)
	src := bkt.Object(f.ID)
	dst := bkt.Object(archiveName(f.ID, s.ArchivePrefix))

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return fmt.Errorf("copy %s to archive: %w", f.ID, err)
	}
	if err := src.Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", f.ID, err)
	}
	return nil
}
