// Package drive reads import CSV files from a Google Drive folder.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/tally-dev/tally/internal/source"
)

// Source lists CSV files in FolderID and archives them into ArchiveFolderID.
type Source struct {
	svc             *gdrive.Service
	FolderID        string
	ArchiveFolderID string
}

var (
	_ source.Lister   = (*Source)(nil)
	_ source.Archiver = (*Source)(nil)
)

// New creates a Drive client. Credentials come from credentialsFile when set,
// otherwise from Application Default Credentials.
func New(ctx context.Context, folderID, archiveFolderID, credentialsFile string) (*Source, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, errors.New("missing drive folder id")
	}
	opts := []option.ClientOption{option.WithScopes(gdrive.DriveScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return NewWithService(svc, folderID, archiveFolderID), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gdrive.Service, folderID, archiveFolderID string) *Source {
	return &Source{svc: svc, FolderID: folderID, ArchiveFolderID: archiveFolderID}
}

func (s *Source) query() string {
	id := strings.ReplaceAll(s.FolderID, "'", `\'`)
	return fmt.Sprintf("'%s' in parents and mimeType = 'text/csv' and trashed = false", id)
}

// ListCSVFiles pages through the folder and downloads every CSV file.
func (s *Source) ListCSVFiles(ctx context.Context) ([]source.File, error) {
	var files []source.File
	pageToken := ""
	for {
		call := s.svc.Files.List().
			Q(s.query()).
			Fields("nextPageToken, files(id, name)").
			OrderBy("name").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive folder: %w", err)
		}

		for _, f := range list.Files {
			data, err := s.download(ctx, f.Id)
			if err != nil {
				return nil, fmt.Errorf("download %s: %w", f.Name, err)
			}
			files = append(files, source.File{ID: f.Id, Name: f.Name, Data: data})
		}

		if list.NextPageToken == "" {
			return files, nil
		}
		pageToken = list.NextPageToken
	}
}

func (s *Source) download(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Archive moves f from the import folder to the archive folder.
func (s *Source) Archive(ctx context.Context, f source.File) error {
	if s.ArchiveFolderID == "" {
		return nil
	}
	_, err := s.svc.Files.Update(f.ID, &gdrive.File{}).
		AddParents(s.ArchiveFolderID).
		RemoveParents(s.FolderID).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("move %s to archive folder: %w", f.Name, err)
	}
	return nil
}
