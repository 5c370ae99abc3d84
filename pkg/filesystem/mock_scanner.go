package filesystem

import (
	"fmt"
	"os"
	"path"
	"sort"
)

// mockFileScanner implements FileScanner for MockFileSystem.
type mockFileScanner struct {
	fs      *MockFileSystem
	root    string
	files   []FileInfo
	index   int
	err     error
	scanned bool
}

// newMockFileScanner creates a new scanner for the given directory.
func newMockFileScanner(fs *MockFileSystem, root string) *mockFileScanner {
	return &mockFileScanner{
		fs:    fs,
		root:  root,
		files: make([]FileInfo, 0),
		index: -1,
	}
}

// Next advances to the next entry and returns its info.
func (s *mockFileScanner) Next() (FileInfo, bool) {
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
func (s *mockFileScanner) Err() error {
	return s.err
}

// scan collects the direct children of the root directory.
func (s *mockFileScanner) scan() {
	if err := s.fs.failure(OpScan, s.root); err != nil {
		s.err = err
		return
	}

	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()

	if dir, ok := s.fs.files[s.root]; !ok || !dir.isDir {
		s.err = fmt.Errorf("scan %s: %w", s.root, os.ErrNotExist)
		return
	}

	for p, file := range s.fs.files {
		if p == s.root || path.Dir(p) != s.root {
			continue
		}

		s.files = append(s.files, FileInfo{
			Name:    path.Base(p),
			Path:    p,
			Size:    int64(len(file.data)),
			ModTime: file.modTime,
			IsDir:   file.isDir,
		})
	}

	// Sort files by path for consistent ordering
	sort.Slice(s.files, func(i, j int) bool {
		return s.files[i].Path < s.files[j].Path
	})
}
