// Package fs provides the filesystem abstraction used by the document store.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the store needs
//   - [Real]: production implementation using [os], atomic writes and flock
//   - [Chaos]: testing implementation that injects failures
//   - [StrictTestFS]: test wrapper that fails on unexpected real errors
//
// Example usage:
//
//	fsys := fs.NewReal()
//	data, err := fsys.ReadFile("data/doku_default.json")
//	if err != nil {
//	    return err
//	}
package fs

import (
	"io"
	"os"
)

// Locker represents a held file lock.
// Call [Locker.Close] to release the lock.
//
// Example:
//
//	lock, err := fsys.Lock("data/doku_default.json")
//	if err != nil {
//	    return err // lock contention or timeout
//	}
//	defer lock.Close()
type Locker interface {
	io.Closer
}

// FS defines filesystem operations for reading, writing, and managing files.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename so readers never see a partial document.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries. See [os.ReadDir].
	// Entries are sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Lock acquires an exclusive advisory lock for path.
	// Blocks until the lock is acquired or returns an error on timeout.
	Lock(path string) (Locker, error)
}
