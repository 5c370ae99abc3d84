package filesystem

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pkg/sftp"
)

const posixRenameExtension = "posix-rename@openssh.com"

// SFTPFileSystem implements FileSystem for SFTP connections.
// Transfers run one at a time, so a single client is shared by every operation.
type SFTPFileSystem struct {
	conn   *SFTPConnection
	client *sftp.Client
}

// NewSFTPFileSystem creates a new SFTP filesystem using an established connection.
func NewSFTPFileSystem(conn *SFTPConnection) *SFTPFileSystem {
	return &SFTPFileSystem{
		conn:   conn,
		client: conn.Client(),
	}
}

// Chtimes changes the access and modification times of a remote file.
func (fs *SFTPFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	err := fs.client.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for remote file %s: %w", path, err)
	}

	return nil
}

// Close closes the SFTP session and the SSH connection behind it.
func (fs *SFTPFileSystem) Close() error {
	return fs.conn.Close()
}

// Create creates a remote file for writing.
func (fs *SFTPFileSystem) Create(path string) (File, error) {
	file, err := fs.client.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote file %s: %w", path, err)
	}

	return file, nil
}

// MkdirAll creates a remote directory and all necessary parents.
func (fs *SFTPFileSystem) MkdirAll(path string, _ os.FileMode) error {
	err := fs.client.MkdirAll(path)
	if err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", path, err)
	}

	return nil
}

// Open opens a remote file for reading.
func (fs *SFTPFileSystem) Open(path string) (File, error) {
	file, err := fs.client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", path, err)
	}

	return file, nil
}

// Remove removes a remote file or empty directory.
func (fs *SFTPFileSystem) Remove(path string) error {
	err := fs.client.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove remote file %s: %w", path, err)
	}

	return nil
}

// Rename replaces newpath with oldpath. The posix-rename extension makes this atomic;
// servers without it get a remove followed by a plain rename.
func (fs *SFTPFileSystem) Rename(oldpath, newpath string) error {
	if _, ok := fs.client.HasExtension(posixRenameExtension); ok {
		if err := fs.client.PosixRename(oldpath, newpath); err != nil {
			return fmt.Errorf("failed to rename remote file %s to %s: %w", oldpath, newpath, err)
		}

		return nil
	}

	if err := fs.client.Remove(newpath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace remote file %s: %w", newpath, err)
	}

	if err := fs.client.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("failed to rename remote file %s to %s: %w", oldpath, newpath, err)
	}

	return nil
}

// Scan returns an iterator over the entries of a remote directory.
func (fs *SFTPFileSystem) Scan(path string) FileScanner {
	return newSFTPScanner(fs.client, path)
}

// Stat returns file information for a remote file.
func (fs *SFTPFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := fs.client.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote file %s: %w", path, err)
	}

	return info, nil
}

// String identifies the filesystem in logs.
func (fs *SFTPFileSystem) String() string {
	return "sftp://" + fs.conn.String()
}
