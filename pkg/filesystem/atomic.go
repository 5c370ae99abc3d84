package filesystem

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/joe/worldsync/pkg/fileops"
)

// WriteFileAtomic writes r to dst on fsys by writing a hidden temporary sibling,
// stamping it with modTime and renaming it over dst. Readers see either the old
// bytes or the new ones, never a partial file. dst must use forward slashes or
// the host separator consistently with fsys.
func WriteFileAtomic(
	ctx context.Context,
	fsys FileSystem,
	dst string,
	r io.Reader,
	modTime time.Time,
	progress fileops.ProgressCallback,
) (int64, error) {
	tmp := tempSibling(dst)

	file, err := fsys.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for %s: %w", dst, err)
	}

	success := false

	// Cleanup temp file only on failure
	defer func() {
		if !success {
			_ = fsys.Remove(tmp)
		}
	}()

	stats, err := fileops.Copy(ctx, file, r, 0, dst, progress)
	if err != nil {
		_ = file.Close()
		return stats.BytesCopied, fmt.Errorf("failed to write %s: %w", dst, err)
	}

	if err := file.Close(); err != nil {
		return stats.BytesCopied, fmt.Errorf("failed to close temp file for %s: %w", dst, err)
	}

	if !modTime.IsZero() {
		if err := fsys.Chtimes(tmp, modTime, modTime); err != nil {
			return stats.BytesCopied, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
		}
	}

	if err := fsys.Rename(tmp, dst); err != nil {
		return stats.BytesCopied, err
	}

	success = true

	return stats.BytesCopied, nil
}

// tempSibling names a hidden temp file next to dst. The name never matches a save
// pattern, so a leftover from a crash is not picked up by a scan.
func tempSibling(dst string) string {
	dir, base := splitPath(dst)
	name := "." + base + ".tmp-" + uuid.NewString()

	if dir == "" {
		return name
	}

	return dir + name
}

// splitPath splits on the last slash or backslash so it works for both local and SFTP paths.
func splitPath(p string) (string, string) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[:i+1], p[i+1:]
		}
	}

	return "", path.Base(p)
}
