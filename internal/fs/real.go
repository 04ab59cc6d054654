package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// Real implements [FS] using the real filesystem.
//
// Most methods are passthroughs to the [os] package. [Real.WriteFileAtomic]
// uses temp file + rename and [Real.Lock] takes an flock on a lock file kept
// in a ".locks" directory next to the locked path.
type Real struct {
	// LockTimeout bounds how long Lock retries; zero means two seconds.
	LockTimeout time.Duration
}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes data via [atomic.WriteFile] and applies perm to the
// resulting file.
func (r *Real) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}

	return os.Chmod(path, perm)
}

// A passthrough wrapper for [os.ReadDir].
func (r *Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// A passthrough wrapper for [os.MkdirAll].
func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Exists checks if a file exists using [os.Stat].
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// --- Locking ---

const (
	lockTimeout    = 2 * time.Second
	maxLockBackoff = 25 * time.Millisecond
	lockPerms      = 0o644
	dirPerms       = 0o755

	// LocksDir is the directory, relative to the locked file's directory,
	// that holds lock files.
	LocksDir = ".locks"
)

// realLock holds an exclusive file lock.
type realLock struct {
	path string
	file *os.File
}

func (l *realLock) Close() error {
	if l.file != nil {
		_ = os.Remove(l.path)
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		err := l.file.Close()
		l.file = nil

		return err
	}

	return nil
}

// Lock acquires an exclusive flock on <dir>/.locks/<base>.lock.
//
// The flock is non-blocking and retried with backoff, so nothing is left
// waiting in the kernel once Lock gives up. Returns [os.ErrDeadlineExceeded]
// if the lock is not acquired within the lock timeout (two seconds unless
// [Real.LockTimeout] is set).
func (r *Real) Lock(path string) (Locker, error) {
	locksDir := filepath.Join(filepath.Dir(path), LocksDir)
	lockPath := filepath.Join(locksDir, filepath.Base(path)+".lock")

	timeout := r.LockTimeout
	if timeout <= 0 {
		timeout = lockTimeout
	}

	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond

	for {
		if err := os.MkdirAll(locksDir, dirPerms); err != nil {
			return nil, err
		}

		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockPerms)
		if err != nil {
			return nil, err
		}

		err = acquire(file, lockPath)
		if err == nil {
			return &realLock{path: lockPath, file: file}, nil
		}

		_ = file.Close()

		if !errors.Is(err, errWouldBlock) && !errors.Is(err, errInodeMismatch) {
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, os.ErrDeadlineExceeded
		}

		time.Sleep(min(backoff, remaining))

		backoff = min(backoff*2, maxLockBackoff)
	}
}

var (
	errWouldBlock = errors.New("lock would block")

	// errInodeMismatch means the lock file was replaced between open and
	// flock; the previous holder removes it on release.
	errInodeMismatch = errors.New("inode mismatch")
)

// acquire takes a non-blocking exclusive flock on file and checks that
// lockPath still refers to the locked inode. On failure the file is
// unlocked but not closed.
func acquire(file *os.File, lockPath string) error {
	fd := int(file.Fd())

	err := flockRetryEINTR(fd, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return errWouldBlock
		}

		return fmt.Errorf("flock: %w", err)
	}

	var openStat, pathStat unix.Stat_t

	err = unix.Fstat(fd, &openStat)
	if err == nil {
		err = unix.Stat(lockPath, &pathStat)
	}

	if err != nil || openStat.Dev != pathStat.Dev || openStat.Ino != pathStat.Ino {
		_ = unix.Flock(fd, unix.LOCK_UN)

		return errInodeMismatch
	}

	return nil
}

// flockRetryEINTR retries flock when a signal interrupts it, with a cap
// against signal storms.
func flockRetryEINTR(fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error
	for range maxEINTRRetries {
		err = unix.Flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}
