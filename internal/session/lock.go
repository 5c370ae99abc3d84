package session

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the local folder while a session runs.
const LockFileName = ".worldsync.lock"

// Exported variables.
var (
	ErrLocked = errors.New("another worldsync session is using this folder")
)

// Lock is an exclusive, cross-process lock on a local save folder.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the lock on dir without blocking. It fails with ErrLocked when another
// process holds it.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)
	fileLock := flock.New(path)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	return &Lock{flock: fileLock}, nil
}

// Release unlocks the folder. The lock file itself is left in place.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.flock.Path(), err)
	}

	return nil
}
