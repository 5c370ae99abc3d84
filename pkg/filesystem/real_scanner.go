package filesystem

import (
	"fmt"

	"github.com/kr/fs"
)

// realFileScanner implements FileScanner using a kr/fs walker that stays at depth one.
type realFileScanner struct {
	root    string
	files   []FileInfo
	index   int
	err     error
	scanned bool
}

// newRealFileScanner creates a new scanner for the given directory.
func newRealFileScanner(root string) *realFileScanner {
	return &realFileScanner{
		root:  root,
		files: make([]FileInfo, 0),
		index: -1,
	}
}

// Next advances to the next entry and returns its info.
func (s *realFileScanner) Next() (FileInfo, bool) {
	// Scan on first call
	if !s.scanned {
		s.scan()
		s.scanned = true
	}

	if s.err != nil {
		return FileInfo{}, false
	}

	s.index++
	if s.index >= len(s.files) {
		return FileInfo{}, false
	}

	return s.files[s.index], true
}

// Err returns any error that occurred during scanning.
func (s *realFileScanner) Err() error {
	return s.err
}

// scan walks the top level of the directory and collects its entries.
func (s *realFileScanner) scan() {
	s.files, s.err = collectEntries(fs.Walk(s.root), s.root, "local")
}

// collectEntries drains a kr/fs walker, keeping only the direct children of root.
// The SFTP client hands out the same walker type, so both scanners share this.
func collectEntries(walker *fs.Walker, root, kind string) ([]FileInfo, error) {
	var files []FileInfo

	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, fmt.Errorf("error scanning %s directory %s: %w", kind, root, err)
		}

		stat := walker.Stat()
		if walker.Path() == root {
			if !stat.IsDir() {
				return nil, fmt.Errorf("%s path %s is not a directory", kind, root) //nolint:err113 // includes path
			}

			continue
		}

		files = append(files, FileInfo{
			Name:    stat.Name(),
			Path:    walker.Path(),
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
			IsDir:   stat.IsDir(),
		})

		if stat.IsDir() {
			walker.SkipDir()
		}
	}

	return files, nil
}
