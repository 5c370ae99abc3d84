// Package filesystem provides an abstraction layer for filesystem operations.
package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Mock operation names accepted by InjectError.
const (
	OpCreate = "create"
	OpOpen   = "open"
	OpRename = "rename"
	OpScan   = "scan"
	OpWrite  = "write"
)

// MockFileSystem is an in-memory filesystem implementation for testing.
// Paths are slash-separated.
type MockFileSystem struct {
	mu       sync.RWMutex
	files    map[string]*mockFile
	failures map[string]error
}

// mockFile represents a file in the mock filesystem.
type mockFile struct {
	path    string
	data    []byte
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

// mockFileInfo implements os.FileInfo for mock files.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.perm }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// mockFileHandle implements the File interface for reading/writing.
type mockFileHandle struct {
	fs     *MockFileSystem
	path   string
	reader *bytes.Reader
	writer *bytes.Buffer
	closed bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if err := f.fs.failure(OpWrite, f.path); err != nil {
		return 0, err
	}
	if f.writer == nil {
		f.writer = &bytes.Buffer{}
	}
	return f.writer.Write(p)
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true

	// If we were writing, save the data
	if f.writer != nil {
		f.fs.mu.Lock()
		defer f.fs.mu.Unlock()

		if file, exists := f.fs.files[f.path]; exists {
			file.data = f.writer.Bytes()
		} else {
			f.fs.files[f.path] = &mockFile{
				path:    f.path,
				data:    f.writer.Bytes(),
				modTime: time.Now(),
				perm:    0o644,
			}
		}
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	return f.fs.Stat(f.path)
}

// NewMockFileSystem creates a new in-memory filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:    make(map[string]*mockFile),
		failures: make(map[string]error),
	}
}

// InjectError makes the given operation on path fail with err.
// An empty path applies to every path.
func (fs *MockFileSystem) InjectError(op, p string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failures[op+":"+p] = err
}

func (fs *MockFileSystem) failure(op, p string) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err, ok := fs.failures[op+":"+p]; ok {
		return err
	}

	return fs.failures[op+":"]
}

// Scan returns an iterator over the direct children of a directory.
func (fs *MockFileSystem) Scan(p string) FileScanner {
	return newMockFileScanner(fs, p)
}

// Stat returns file information.
func (fs *MockFileSystem) Stat(p string) (os.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[p]
	if !exists {
		return nil, fmt.Errorf("stat %s: %w", p, os.ErrNotExist)
	}

	return &mockFileInfo{
		name:    path.Base(p),
		size:    int64(len(file.data)),
		modTime: file.modTime,
		isDir:   file.isDir,
		perm:    file.perm,
	}, nil
}

// Remove removes a file or empty directory.
func (fs *MockFileSystem) Remove(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[p]
	if !exists {
		return fmt.Errorf("remove %s: %w", p, os.ErrNotExist)
	}

	// If it's a directory, check if it's empty
	if file.isDir {
		for other := range fs.files {
			if strings.HasPrefix(other, p+"/") {
				return fmt.Errorf("remove %s: directory not empty", p) //nolint:err113 // mirrors the OS message
			}
		}
	}

	delete(fs.files, p)
	return nil
}

// Rename moves a file, replacing the destination.
func (fs *MockFileSystem) Rename(oldpath, newpath string) error {
	if err := fs.failure(OpRename, newpath); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[oldpath]
	if !exists {
		return fmt.Errorf("rename %s: %w", oldpath, os.ErrNotExist)
	}

	delete(fs.files, oldpath)
	file.path = newpath
	fs.files[newpath] = file

	return nil
}

// Chtimes changes the access and modification times of a file.
func (fs *MockFileSystem) Chtimes(p string, _, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[p]
	if !exists {
		return fmt.Errorf("chtimes %s: %w", p, os.ErrNotExist)
	}

	file.modTime = mtime
	return nil
}

// MkdirAll creates a directory and all necessary parents.
func (fs *MockFileSystem) MkdirAll(p string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mkdirAllLocked(p, perm)

	return nil
}

// mkdirAllLocked is the internal implementation that assumes the lock is held.
func (fs *MockFileSystem) mkdirAllLocked(p string, perm os.FileMode) {
	if p == "." || p == "/" || p == "" {
		return
	}

	fs.mkdirAllLocked(path.Dir(p), perm)

	if _, exists := fs.files[p]; !exists {
		fs.files[p] = &mockFile{
			path:    p,
			modTime: time.Now(),
			isDir:   true,
			perm:    perm,
		}
	}
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(p string) (File, error) {
	if err := fs.failure(OpOpen, p); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[p]
	if !exists {
		return nil, fmt.Errorf("open %s: %w", p, os.ErrNotExist)
	}

	if file.isDir {
		return nil, fmt.Errorf("open %s: is a directory", p) //nolint:err113 // mirrors the OS message
	}

	return &mockFileHandle{
		fs:     fs,
		path:   p,
		reader: bytes.NewReader(file.data),
	}, nil
}

// Create creates a file for writing.
func (fs *MockFileSystem) Create(p string) (File, error) {
	if err := fs.failure(OpCreate, p); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mkdirAllLocked(path.Dir(p), 0o755)

	// Create or truncate the file
	fs.files[p] = &mockFile{
		path:    p,
		data:    []byte{},
		modTime: time.Now(),
		perm:    0o644,
	}

	return &mockFileHandle{
		fs:     fs,
		path:   p,
		writer: &bytes.Buffer{},
	}, nil
}

// Helper methods for testing

// AddFile adds a file to the mock filesystem with the given content and modtime.
func (fs *MockFileSystem) AddFile(p string, content []byte, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mkdirAllLocked(path.Dir(p), 0o755)

	fs.files[p] = &mockFile{
		path:    p,
		data:    append([]byte(nil), content...),
		modTime: modTime,
		perm:    0o644,
	}
}

// AddDir adds a directory to the mock filesystem.
func (fs *MockFileSystem) AddDir(p string, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.files[p] = &mockFile{
		path:    p,
		modTime: modTime,
		isDir:   true,
		perm:    0o755,
	}
}

// GetFile retrieves a file's content from the mock filesystem.
func (fs *MockFileSystem) GetFile(p string) ([]byte, time.Time, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[p]
	if !exists {
		return nil, time.Time{}, fmt.Errorf("get %s: %w", p, os.ErrNotExist)
	}

	if file.isDir {
		return nil, time.Time{}, fmt.Errorf("get %s: is a directory", p) //nolint:err113 // mirrors the OS message
	}

	return append([]byte(nil), file.data...), file.modTime, nil
}

// Exists checks if a path exists in the mock filesystem.
func (fs *MockFileSystem) Exists(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, exists := fs.files[p]
	return exists
}

// ListFiles returns all paths in the mock filesystem.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
