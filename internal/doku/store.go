package doku

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/oliverschmidt99/daily-doc-app/internal/fs"

	"go.uber.org/zap"
)

// ReadStatus classifies the outcome of [Store.Read].
type ReadStatus int

const (
	// ReadOK means the file existed and decoded; the document is backfilled.
	ReadOK ReadStatus = iota
	// ReadAbsent means there is no file for the context yet.
	ReadAbsent
	// ReadCorrupt means the file exists but is not a valid document.
	ReadCorrupt
	// ReadFailed means the file could not be read.
	ReadFailed
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadAbsent:
		return "absent"
	case ReadCorrupt:
		return "corrupt"
	case ReadFailed:
		return "failed"
	default:
		return fmt.Sprintf("ReadStatus(%d)", int(s))
	}
}

// ReadResult is the tagged result of reading a context from disk.
// Document is set only when Status is [ReadOK]; Err only for
// [ReadCorrupt] and [ReadFailed].
type ReadResult struct {
	Status   ReadStatus
	Path     string
	Document *Document
	Err      error
}

// ContextInfo identifies a context in [Store.ListContexts].
type ContextInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store maps context identifiers to documents stored as one JSON file each
// under a data directory.
//
// Writes to the same context are serialized with a file lock; concurrent
// load-modify-save cycles still race and the last writer wins.
type Store struct {
	fs  fs.FS
	log *zap.Logger

	mu  sync.RWMutex
	dir string
}

// NewStore creates a Store rooted at dir. A nil logger disables logging.
func NewStore(fsys fs.FS, dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{fs: fsys, dir: dir, log: log}
}

// Dir returns the current data directory.
func (s *Store) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dir
}

// SetDir switches the data directory. Later operations use the new
// directory; nothing is moved.
func (s *Store) SetDir(dir string) {
	s.mu.Lock()
	s.dir = dir
	s.mu.Unlock()

	s.log.Info("data directory changed", zap.String("dir", dir))
}

// Path returns the file path for a context identifier.
func (s *Store) Path(identifier string) string {
	return filepath.Join(s.Dir(), FileName(identifier))
}

// Read reads the document for identifier without falling back to defaults.
func (s *Store) Read(identifier string) ReadResult {
	path := s.Path(identifier)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ReadResult{Status: ReadAbsent, Path: path}
		}

		return ReadResult{Status: ReadFailed, Path: path, Err: fmt.Errorf("%w: %w", ErrIO, err)}
	}

	doc, err := DecodeStoredDocument(data)
	if err != nil {
		return ReadResult{Status: ReadCorrupt, Path: path, Err: err}
	}

	doc.Backfill(identifier)

	return ReadResult{Status: ReadOK, Path: path, Document: doc}
}

// Load returns the document for identifier. It never fails: a missing,
// unreadable or corrupt file yields the default document, which is not
// written to disk. Corrupt and unreadable files are logged.
func (s *Store) Load(identifier string) *Document {
	dir := s.Dir()

	err := s.fs.MkdirAll(dir, dirPerms)
	if err != nil {
		s.log.Warn("cannot create data directory", zap.String("dir", dir), zap.Error(err))
	}

	res := s.Read(identifier)

	switch res.Status {
	case ReadOK:
		return res.Document
	case ReadCorrupt:
		s.log.Warn("document is corrupt, using defaults",
			zap.String("context", identifier), zap.String("path", res.Path), zap.Error(res.Err))
	case ReadFailed:
		s.log.Warn("cannot read document, using defaults",
			zap.String("context", identifier), zap.String("path", res.Path), zap.Error(res.Err))
	case ReadAbsent:
	}

	return NewDocument(identifier)
}

// LoadForUpdate returns the document for identifier as the base of a
// modification. Unlike [Store.Load] it refuses to hand out defaults for a
// file that exists but cannot be read or parsed, so saving the result never
// replaces the user's data with an empty document. A missing file yields the
// default document.
func (s *Store) LoadForUpdate(identifier string) (*Document, error) {
	dir := s.Dir()

	err := s.fs.MkdirAll(dir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	res := s.Read(identifier)

	switch res.Status {
	case ReadOK:
		return res.Document, nil
	case ReadAbsent:
		return NewDocument(identifier), nil
	case ReadCorrupt, ReadFailed:
	}

	s.log.Warn("refusing to modify unreadable document",
		zap.String("context", identifier), zap.String("path", res.Path), zap.Error(res.Err))

	return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, res.Path, res.Err)
}

// Save overwrites the document for identifier in full.
// Failures are returned wrapped in [ErrIO].
func (s *Store) Save(identifier string, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}

	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return s.withLock(identifier, func(path string) error {
		return s.write(path, data)
	})
}

// Create persists a new default document for identifier with the given
// display name. A blank name falls back to the capitalized key. Returns
// [ErrContextExists] if a file for the resolved key already exists; the
// existing file is left untouched.
func (s *Store) Create(identifier, displayName string) error {
	doc := NewDocument(identifier)
	if displayName != "" {
		doc.ContextName = displayName
	}

	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return s.withLock(identifier, func(path string) error {
		exists, err := s.fs.Exists(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}

		if exists {
			return fmt.Errorf("%w: %s", ErrContextExists, ResolveContextKey(identifier))
		}

		return s.write(path, data)
	})
}

// ListContexts returns every context in the data directory sorted by
// display name. If there is none, the default context is created first so
// the list is never empty.
func (s *Store) ListContexts() ([]ContextInfo, error) {
	dir := s.Dir()

	err := s.fs.MkdirAll(dir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", ErrIO, err)
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read data directory: %w", ErrIO, err)
	}

	var contexts []ContextInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		key, ok := keyFromFileName(entry.Name())
		if !ok {
			continue
		}

		contexts = append(contexts, ContextInfo{ID: key, Name: s.Load(key).ContextName})
	}

	if len(contexts) == 0 {
		doc := NewDocument(DefaultContext)

		err := s.Save(DefaultContext, doc)
		if err != nil {
			return nil, err
		}

		s.log.Info("created default context", zap.String("path", s.Path(DefaultContext)))

		return []ContextInfo{{ID: DefaultContext, Name: doc.ContextName}}, nil
	}

	slices.SortFunc(contexts, func(a, b ContextInfo) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return contexts, nil
}

// withLock ensures the data directory exists and runs fn with the context's
// file lock held.
func (s *Store) withLock(identifier string, fn func(path string) error) error {
	dir := s.Dir()
	path := filepath.Join(dir, FileName(identifier))

	err := s.fs.MkdirAll(dir, dirPerms)
	if err != nil {
		s.log.Error("cannot create data directory", zap.String("dir", dir), zap.Error(err))

		return fmt.Errorf("%w: create data directory: %w", ErrIO, err)
	}

	lock, err := s.fs.Lock(path)
	if err != nil {
		s.log.Error("cannot lock document", zap.String("path", path), zap.Error(err))

		return fmt.Errorf("%w: lock %s: %w", ErrIO, path, err)
	}
	defer lock.Close()

	return fn(path)
}

func (s *Store) write(path string, data []byte) error {
	err := s.fs.WriteFileAtomic(path, data, filePerms)
	if err != nil {
		s.log.Error("cannot write document", zap.String("path", path), zap.Error(err))

		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}

	s.log.Debug("document written", zap.String("path", path), zap.Int("bytes", len(data)))

	return nil
}
