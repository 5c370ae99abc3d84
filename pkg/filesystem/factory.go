package filesystem

import (
	"fmt"
)

// CreateFileSystem creates a FileSystem for the given path.
// Returns (filesystem, basePath, closer, error).
// - filesystem: The FileSystem to use for operations
// - basePath: The actual path to use with the filesystem (stripped of URL prefix)
// - closer: A function to call when done (closes SFTP connections), never nil
func CreateFileSystem(pathStr string) (FileSystem, string, func(), error) {
	parsed, err := ParsePath(pathStr)
	if err != nil {
		return nil, "", nil, err
	}

	if !parsed.IsRemote {
		return NewRealFileSystem(), parsed.LocalPath, func() {}, nil
	}

	conn, err := Connect(parsed.Host, parsed.Port, parsed.User)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to connect to %s@%s:%d: %w",
			parsed.User, parsed.Host, parsed.Port, err)
	}

	fs := NewSFTPFileSystem(conn)
	closer := func() {
		_ = fs.Close()
	}

	return fs, parsed.Path, closer, nil
}
