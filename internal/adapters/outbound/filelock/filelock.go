// Package filelock guards a report directory against concurrent runs and
// writes report files atomically.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the report directory while a run holds it.
const LockFileName = ".scra.lock"

// ErrLocked is returned by TryLock when another run holds the directory.
var ErrLocked = errors.New("report directory is locked by another run")

// DirLock is an exclusive advisory lock on a report directory.
type DirLock struct {
	flock *flock.Flock
	path  string
}

// New returns an unacquired lock for dir. The directory is created on TryLock.
func New(dir string) *DirLock {
	path := filepath.Join(dir, LockFileName)
	return &DirLock{flock: flock.New(path), path: path}
}

// TryLock acquires the lock without blocking. It returns ErrLocked when the
// directory is already held.
func (l *DirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(l.path), err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, filepath.Dir(l.path))
	}
	return nil
}

// Unlock releases the lock. The lock file is left in place; removing it
// would let a waiting run lock an unlinked inode.
func (l *DirLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file location.
func (l *DirLock) Path() string { return l.path }

// AtomicWrite writes data to path through a temp file in the same directory
// and a rename, so readers never observe a partial file.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	tmp = nil
	return nil
}

// Locker implements domain.DirLocker with DirLock.
type Locker struct{}

func NewLocker() Locker { return Locker{} }

func (Locker) Lock(dir string) (func() error, error) {
	l := New(dir)
	if err := l.TryLock(); err != nil {
		return nil, err
	}
	return l.Unlock, nil
}
