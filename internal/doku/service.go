package doku

import (
	"bytes"
	"fmt"
	"strings"
)

// Service is what the HTTP and CLI layers call: every operation resolves a
// context through the [Store], applies an editor operation in memory and
// writes the result back.
//
// Operations are load-modify-save without a lock spanning the cycle.
// Concurrent edits of the same context race and the last save wins.
type Service struct {
	store *Store
}

// NewService returns a Service backed by store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// Load returns the full document for a context.
func (s *Service) Load(contextID string) *Document {
	return s.store.Load(contextID)
}

// Save overwrites a context with doc. Missing top-level fields are
// backfilled before writing.
func (s *Service) Save(contextID string, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}

	doc.Backfill(contextID)

	return s.store.Save(contextID, doc)
}

// CreateContext creates a new context. The id must contain at least one
// letter or digit.
func (s *Service) CreateContext(id, name string) error {
	if !HasContextKey(id) {
		return fmt.Errorf("%w: %q", ErrInvalidContextID, id)
	}

	return s.store.Create(id, strings.TrimSpace(name))
}

// ListContexts returns all contexts sorted by display name.
func (s *Service) ListContexts() ([]ContextInfo, error) {
	return s.store.ListContexts()
}

// Rename changes the display name of a context.
func (s *Service) Rename(contextID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrContextNameRequired
	}

	doc, err := s.store.LoadForUpdate(contextID)
	if err != nil {
		return err
	}

	doc.ContextName = name
	delete(doc.Extra, keyContextName)

	return s.store.Save(contextID, doc)
}

// EditTag renames a tag and moves it to category. An empty category keeps
// the tag's current one; otherwise the category must exist in the
// document's categoryStyles.
func (s *Service) EditTag(contextID, oldName, newName, category string) error {
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return ErrTagNameRequired
	}

	doc, err := s.store.LoadForUpdate(contextID)
	if err != nil {
		return err
	}

	if category == "" {
		category = doc.TagCategoryMap[oldName]
	} else if !doc.HasCategory(category) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	err = RenameTag(doc, oldName, newName, category)
	if err != nil {
		return err
	}

	return s.store.Save(contextID, doc)
}

// DeleteTag removes a tag and all references to it.
func (s *Service) DeleteTag(contextID, tagName string) error {
	if tagName == "" {
		return ErrTagNameRequired
	}

	doc, err := s.store.LoadForUpdate(contextID)
	if err != nil {
		return err
	}

	DeleteTag(doc, tagName)

	return s.store.Save(contextID, doc)
}

// ImportDocument deep-merges a raw JSON object into a context. Payloads that
// are not a JSON object are rejected with [ErrInvalidImport] before
// anything is loaded.
func (s *Service) ImportDocument(contextID string, raw []byte) error {
	raw = bytes.TrimSpace(raw)

	var incoming map[string]any

	err := decodeNumbers(raw, &incoming)
	if err != nil || incoming == nil {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidImport)
	}

	doc, err := s.store.LoadForUpdate(contextID)
	if err != nil {
		return err
	}

	err = MergeInto(doc, incoming)
	if err != nil {
		return err
	}

	return s.store.Save(contextID, doc)
}
