package fs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// TestBuilder is the subset of [testing.T] used by [StrictTestFS].
//
// This keeps [StrictTestFS] usable from tests in other packages without
// depending on _test.go files.
type TestBuilder interface {
	Helper()
	Cleanup(func())
	Failed() bool
	Logf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// StrictTestFS wraps an [FS] for tests:
//   - Records a bounded trace of recent FS operations
//   - Fails the test on any non-injected filesystem error
//
// Missing files are not treated as failures, since the store checks for
// context files that may not exist yet.
type StrictTestFS struct {
	tb    TestBuilder
	fs    FS
	trace *traceLog
}

// NewStrictTestFS wraps fsys. On test failure the trace of recent
// operations is logged via tb.Cleanup.
func NewStrictTestFS(tb TestBuilder, fsys FS) *StrictTestFS {
	tb.Helper()

	s := &StrictTestFS{
		tb:    tb,
		fs:    fsys,
		trace: newTraceLog(200),
	}

	tb.Cleanup(func() {
		if tb.Failed() {
			if trace := s.Trace(); trace != "" {
				tb.Logf("fs trace:\n%s", trace)
			}
		}
	})

	return s
}

// Trace returns a formatted string of recent FS operations.
func (s *StrictTestFS) Trace() string {
	return s.trace.String()
}

func (s *StrictTestFS) ReadFile(path string) ([]byte, error) {
	s.tb.Helper()
	data, err := s.fs.ReadFile(path)

	return data, s.wrap("readfile", path, err, attr("n", strconv.Itoa(len(data))))
}

func (s *StrictTestFS) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	s.tb.Helper()

	return s.wrap("writeatomic", path, s.fs.WriteFileAtomic(path, data, perm), attr("n", strconv.Itoa(len(data))))
}

func (s *StrictTestFS) ReadDir(path string) ([]os.DirEntry, error) {
	s.tb.Helper()
	entries, err := s.fs.ReadDir(path)

	return entries, s.wrap("readdir", path, err, attr("n", strconv.Itoa(len(entries))))
}

func (s *StrictTestFS) MkdirAll(path string, perm os.FileMode) error {
	s.tb.Helper()

	return s.wrap("mkdirall", path, s.fs.MkdirAll(path, perm), attr("perm", fmt.Sprintf("%#o", perm)))
}

func (s *StrictTestFS) Exists(path string) (bool, error) {
	s.tb.Helper()
	exists, err := s.fs.Exists(path)

	return exists, s.wrap("exists", path, err, attr("exists", strconv.FormatBool(exists)))
}

func (s *StrictTestFS) Lock(path string) (Locker, error) {
	s.tb.Helper()
	lock, err := s.fs.Lock(path)

	return lock, s.wrap("lock", path, err)
}

var _ FS = (*StrictTestFS)(nil)

func (s *StrictTestFS) wrap(op, path string, err error, attrs ...kv) error {
	s.tb.Helper()

	s.trace.add(op, path, err, attrs...)

	if err != nil && !IsInjected(err) && !errors.Is(err, os.ErrNotExist) {
		trace := s.Trace()
		if trace != "" {
			trace = "\n" + trace
		}

		s.tb.Fatalf("strictfs: underlying filesystem error: %v%s", err, trace)
	}

	return err
}

type kv struct {
	k string
	v string
}

func attr(k, v string) kv {
	return kv{k: k, v: v}
}

type traceEvent struct {
	seq      uint64
	op       string
	path     string
	err      error
	injected bool
	attrs    []kv
}

func (e traceEvent) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "#%d %s", e.seq, e.op)

	if e.path != "" {
		fmt.Fprintf(&b, " path=%q", e.path)
	}

	for _, a := range e.attrs {
		fmt.Fprintf(&b, " %s=%s", a.k, a.v)
	}

	if e.err == nil {
		b.WriteString(" ok")

		return b.String()
	}

	fmt.Fprintf(&b, " err=%v injected=%t", e.err, e.injected)

	return b.String()
}

// traceLog is a bounded ring of [traceEvent].
type traceLog struct {
	mu       sync.Mutex
	capacity int
	events   []traceEvent
	next     int
	seq      uint64
}

func newTraceLog(capacity int) *traceLog {
	return &traceLog{
		capacity: capacity,
		events:   make([]traceEvent, 0, capacity),
	}
}

func (t *traceLog) add(op, path string, err error, attrs ...kv) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++

	event := traceEvent{
		seq:      t.seq,
		op:       op,
		path:     path,
		err:      err,
		injected: IsInjected(err),
		attrs:    attrs,
	}

	if len(t.events) < t.capacity {
		t.events = append(t.events, event)

		return
	}

	t.events[t.next] = event
	t.next = (t.next + 1) % t.capacity
}

func (t *traceLog) String() string {
	t.mu.Lock()
	events := append(append([]traceEvent(nil), t.events[t.next:]...), t.events[:t.next]...)
	t.mu.Unlock()

	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, e.String())
	}

	return strings.Join(lines, "\n")
}
