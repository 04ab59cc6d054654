package fs

import (
	"io/fs"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
type ChaosConfig struct {
	ReadFailRate    float64 // Fail ReadFile
	PartialReadRate float64 // Return truncated data from ReadFile
	WriteFailRate   float64 // Fail WriteFileAtomic (target left untouched)
	ReadDirFailRate float64 // Fail ReadDir
	MkdirFailRate   float64 // Fail MkdirAll
	StatFailRate    float64 // Fail Exists
	LockFailRate    float64 // Fail Lock acquisition
}

// DefaultChaosConfig returns a config with reasonable fault rates for testing.
func DefaultChaosConfig() ChaosConfig {
	return ChaosConfig{
		ReadFailRate:    0.02,
		PartialReadRate: 0.02,
		WriteFailRate:   0.02,
		ReadDirFailRate: 0.02,
		MkdirFailRate:   0.01,
		StatFailRate:    0.01,
		LockFailRate:    0.02,
	}
}

// ChaosMode controls how Chaos behaves.
type ChaosMode uint8

const (
	// ChaosModePassthrough behaves like the underlying FS.
	ChaosModePassthrough ChaosMode = iota

	// ChaosModeInject enables fault-rate injection.
	ChaosModeInject
)

// Chaos wraps an [FS] and injects failures for testing.
//
// All injected errors are *fs.PathError values carrying a real
// [syscall.Errno], so errors.Is and os.IsNotExist behave as they would for
// real OS errors. Use [IsInjected] to tell injected errors apart.
//
// Writes are all-or-nothing: an injected write failure never touches the
// target file, matching the guarantee of [FS.WriteFileAtomic].
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32

	mu  sync.Mutex
	rng *rand.Rand

	readFails    atomic.Int64
	partialReads atomic.Int64
	writeFails   atomic.Int64
	readDirFails atomic.Int64
	mkdirFails   atomic.Int64
	statFails    atomic.Int64
	lockFails    atomic.Int64
}

// NewChaos creates a new Chaos filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// A new Chaos starts in [ChaosModePassthrough].
func NewChaos(fsys FS, seed int64, config ChaosConfig) *Chaos {
	return &Chaos{
		fs:     fsys,
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SetMode updates Chaos behavior. Safe to call concurrently with operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	ReadFails    int64
	PartialReads int64
	WriteFails   int64
	ReadDirFails int64
	MkdirFails   int64
	StatFails    int64
	LockFails    int64
}

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		ReadFails:    c.readFails.Load(),
		PartialReads: c.partialReads.Load(),
		WriteFails:   c.writeFails.Load(),
		ReadDirFails: c.readDirFails.Load(),
		MkdirFails:   c.mkdirFails.Load(),
		StatFails:    c.statFails.Load(),
		LockFails:    c.lockFails.Load(),
	}
}

// TotalFaults returns the total number of injected faults.
func (c *Chaos) TotalFaults() int64 {
	s := c.Stats()

	return s.ReadFails + s.PartialReads + s.WriteFails + s.ReadDirFails +
		s.MkdirFails + s.StatFails + s.LockFails
}

func (c *Chaos) should(rate float64) bool {
	if ChaosMode(c.mode.Load()) != ChaosModeInject || rate <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64() < rate
}

func (c *Chaos) randIntn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Intn(n)
}

// pathError creates an injected *fs.PathError with the given errno.
func pathError(op, path string, errno syscall.Errno) error {
	pe := &fs.PathError{Op: op, Path: path, Err: errno}
	markInjectedPathError(pe)

	return pe
}

func (c *Chaos) pick(errs ...syscall.Errno) syscall.Errno {
	return errs[c.randIntn(len(errs))]
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.should(c.config.ReadFailRate) {
		c.readFails.Add(1)

		return nil, pathError("read", path, c.pick(syscall.EIO, syscall.EACCES))
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) > 1 && c.should(c.config.PartialReadRate) {
		c.partialReads.Add(1)

		return data[:c.randIntn(len(data)-1)+1], nil
	}

	return data, nil
}

func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if c.should(c.config.WriteFailRate) {
		c.writeFails.Add(1)

		return pathError("write", path, c.pick(syscall.EIO, syscall.ENOSPC, syscall.EACCES, syscall.EROFS))
	}

	return c.fs.WriteFileAtomic(path, data, perm)
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.should(c.config.ReadDirFailRate) {
		c.readDirFails.Add(1)

		return nil, pathError("readdir", path, c.pick(syscall.EIO, syscall.EACCES))
	}

	return c.fs.ReadDir(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if c.should(c.config.MkdirFailRate) {
		c.mkdirFails.Add(1)

		return pathError("mkdir", path, c.pick(syscall.EACCES, syscall.EROFS))
	}

	return c.fs.MkdirAll(path, perm)
}

func (c *Chaos) Exists(path string) (bool, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return false, pathError("stat", path, c.pick(syscall.EIO, syscall.EACCES))
	}

	return c.fs.Exists(path)
}

func (c *Chaos) Lock(path string) (Locker, error) {
	if c.should(c.config.LockFailRate) {
		c.lockFails.Add(1)

		return nil, inject(os.ErrDeadlineExceeded)
	}

	return c.fs.Lock(path)
}

// Compile-time interface checks.
var (
	_ FS = (*Real)(nil)
	_ FS = (*Chaos)(nil)
)
