package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/transfer"
)

// driveListFields limits list responses to what a catalog entry needs.
const driveListFields googleapi.Field = "nextPageToken, files(id, name, modifiedTime, size, lastModifyingUser(displayName, me))"

const driveContentType = "application/octet-stream"

// Drive is a remote side backed by one Google Drive folder. Locations are Drive file ids.
type Drive struct {
	service  *drive.Service
	folderID string
}

// NewDrive creates a Drive store on an existing service.
func NewDrive(service *drive.Service, folderID string) *Drive {
	return &Drive{service: service, folderID: folderID}
}

// OpenDrive creates a Drive store with the given client options, e.g. a token source.
func OpenDrive(ctx context.Context, folderID string, opts ...option.ClientOption) (*Drive, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	return NewDrive(service, folderID), nil
}

// Name returns the gdrive:// URL of the folder.
func (d *Drive) Name() string {
	return "gdrive://" + d.folderID
}

// List returns the non-trashed files in the folder, following pagination.
func (d *Drive) List(ctx context.Context) ([]catalog.FileEntry, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", d.folderID)

	var entries []catalog.FileEntry

	err := d.service.Files.List().
		Q(query).
		Fields(driveListFields).
		Pages(ctx, func(page *drive.FileList) error {
			for _, file := range page.Files {
				entry, err := driveEntry(file)
				if err != nil {
					return err
				}

				entries = append(entries, entry)
			}

			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.Name(), err)
	}

	return entries, nil
}

func driveEntry(file *drive.File) (catalog.FileEntry, error) {
	modTime, err := time.Parse(time.RFC3339, file.ModifiedTime)
	if err != nil {
		return catalog.FileEntry{}, fmt.Errorf("invalid modifiedTime %q on %s: %w", file.ModifiedTime, file.Name, err)
	}

	entry := catalog.FileEntry{
		Identity:   file.Name,
		ModifiedAt: modTime,
		Size:       file.Size,
		Location:   file.Id,
	}

	if user := file.LastModifyingUser; user != nil {
		entry.ModifiedBy = user.DisplayName
		if user.Me {
			entry.ModifiedBy = "me"
		}
	}

	return entry, nil
}

// Upload creates a new file in the folder, or replaces the content of req.Replace.
// Drive's modifiedTime is set to req.ModTime either way.
func (d *Drive) Upload(ctx context.Context, req transfer.UploadRequest) (string, error) {
	metadata := &drive.File{ModifiedTime: req.ModTime.UTC().Format(time.RFC3339Nano)}
	media := googleapi.ContentType(driveContentType)

	var (
		file *drive.File
		err  error
	)

	if req.Replace != "" {
		file, err = d.service.Files.Update(req.Replace, metadata).
			Media(req.Body, media).
			Fields("id").
			Context(ctx).
			Do()
	} else {
		metadata.Name = req.Name
		metadata.Parents = []string{d.folderID}

		file, err = d.service.Files.Create(metadata).
			Media(req.Body, media).
			Fields("id").
			Context(ctx).
			Do()
	}

	if err != nil {
		return "", fmt.Errorf("failed to upload %s to %s: %w", req.Name, d.Name(), err)
	}

	return file.Id, nil
}

// Download streams the content of the file with the given id.
func (d *Drive) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := d.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", id, err)
	}

	return resp.Body, nil
}

// Close is a no-op; the Drive service uses a shared HTTP client.
func (d *Drive) Close() error {
	return nil
}
