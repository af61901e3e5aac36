// Package dir reads import CSV files from a local directory.
package dir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tally-dev/tally/internal/source"
)

// Source lists <Dir>/*.csv and archives into ProcessedDir.
type Source struct {
	Dir          string
	ProcessedDir string
}

var (
	_ source.Lister   = (*Source)(nil)
	_ source.Archiver = (*Source)(nil)
)

// New returns a Source. An empty processedDir means <dir>/processed.
func New(dir, processedDir string) *Source {
	if processedDir == "" {
		processedDir = filepath.Join(dir, "processed")
	}
	return &Source{Dir: dir, ProcessedDir: processedDir}
}

// ListCSVFiles returns the CSV files in Dir sorted by name. A missing
// directory has no files.
func (s *Source) ListCSVFiles(ctx context.Context) ([]source.File, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make([]source.File, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		files = append(files, source.File{ID: path, Name: name, Data: data})
	}
	return files, nil
}

// Archive moves f into ProcessedDir.
func (s *Source) Archive(_ context.Context, f source.File) error {
	if err := os.MkdirAll(s.ProcessedDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := f.ID
	if src == "" {
		src = filepath.Join(s.Dir, f.Name)
	}
	dst := filepath.Join(s.ProcessedDir, filepath.Base(src))
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", f.Name, err)
	}
	return nil
}
