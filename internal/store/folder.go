// Package store implements the storage sides consumed by the sync core: a folder on a
// filesystem (local or SFTP), an S3 bucket prefix, and a Google Drive folder.
package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/transfer"
	"github.com/joe/worldsync/pkg/filesystem"
)

// Folder is a directory of save files on a FileSystem. It serves as the local side and,
// for NAS mounts or SFTP directories, as the remote side.
type Folder struct {
	fsys   filesystem.FileSystem
	root   string
	label  string
	join   func(elem ...string) string
	closer func()
}

// NewFolder wraps root on fsys. Paths are joined with the host separator on the real
// filesystem and with forward slashes everywhere else.
func NewFolder(fsys filesystem.FileSystem, root string) *Folder {
	join := path.Join
	if _, ok := fsys.(*filesystem.RealFileSystem); ok {
		join = filepath.Join
	}

	return &Folder{fsys: fsys, root: root, label: root, join: join, closer: func() {}}
}

// OpenFolder opens a local directory or an sftp:// URL.
func OpenFolder(location string) (*Folder, error) {
	parsed, err := filesystem.ParsePath(location)
	if err != nil {
		return nil, err
	}

	fsys, root, closer, err := filesystem.CreateFileSystem(location)
	if err != nil {
		return nil, err
	}

	folder := NewFolder(fsys, root)
	folder.label = parsed.String()
	folder.closer = closer

	return folder, nil
}

// Name returns the folder's path or URL.
func (f *Folder) Name() string {
	return f.label
}

// Root returns the directory path on the underlying filesystem.
func (f *Folder) Root() string {
	return f.root
}

// List returns the regular files directly inside the folder. Hidden files are skipped,
// which also hides temp files left behind by an interrupted write.
func (f *Folder) List(ctx context.Context) ([]catalog.FileEntry, error) {
	scanner := f.fsys.Scan(f.root)

	var entries []catalog.FileEntry

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan of %s cancelled: %w", f.label, err)
		}

		info, ok := scanner.Next()
		if !ok {
			break
		}

		if info.IsDir || strings.HasPrefix(info.Name, ".") {
			continue
		}

		entries = append(entries, catalog.FileEntry{
			Identity:   info.Name,
			ModifiedAt: info.ModTime,
			Size:       info.Size,
			Location:   info.Path,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", f.label, err)
	}

	return entries, nil
}

// Open opens the file at location for reading.
func (f *Folder) Open(_ context.Context, location string) (io.ReadCloser, error) {
	file, err := f.fsys.Open(location)
	if err != nil {
		return nil, err //nolint:wrapcheck // filesystem errors already name the path
	}

	return file, nil
}

// Write atomically replaces name in the folder and stamps it with modTime.
func (f *Folder) Write(ctx context.Context, name string, body io.Reader, modTime time.Time) (string, error) {
	dst := f.join(f.root, name)

	if _, err := filesystem.WriteFileAtomic(ctx, f.fsys, dst, body, modTime, nil); err != nil {
		return "", err //nolint:wrapcheck // WriteFileAtomic errors already name the destination
	}

	return dst, nil
}

// Upload stores req.Body under req.Name. A folder replaces by name, so req.Replace is unused.
func (f *Folder) Upload(ctx context.Context, req transfer.UploadRequest) (string, error) {
	return f.Write(ctx, req.Name, req.Body, req.ModTime)
}

// Download opens the file at location.
func (f *Folder) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	return f.Open(ctx, location)
}

// Close releases the underlying connection, if any.
func (f *Folder) Close() error {
	f.closer()
	return nil
}
