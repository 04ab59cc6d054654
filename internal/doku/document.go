package doku

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
)

var errTrailingData = errors.New("unexpected data after JSON value")

// Top-level document keys.
const (
	keyContextName    = "contextName"
	keyAppData        = "appData"
	keyTagCategoryMap = "tagCategoryMap"
	keyProjects       = "projects"
	keyTodos          = "todos"
	keyCategoryStyles = "categoryStyles"

	keyEntries  = "entries"
	keyTags     = "tags"
	keyTagNames = "tagNames"
)

// Record is an opaque JSON object. Numbers are kept as [json.Number] so they
// round-trip without loss.
type Record = map[string]any

// Document is the unit of persistence: one per context, one file per document.
//
// Keys the store does not know about are kept in Extra and written back
// unchanged.
type Document struct {
	ContextName    string
	AppData        map[string]*Section
	TagCategoryMap map[string]string
	Projects       []Record
	Todos          []*Item
	CategoryStyles map[string]any
	Extra          map[string]any
}

// Section is one appData value: a list of documentation entries plus
// whatever else the client stores next to it.
type Section struct {
	Entries []*Item
	Extra   map[string]any
}

// Item is a todo or documentation entry.
//
// The tag list is resolved once when decoding: Tags holds the list and
// TagKey remembers which field carried it ("tags" or "tagNames"). If both
// are present "tags" wins and "tagNames" stays in Fields untouched. Items
// without a string-list tag field have an empty TagKey and are never touched
// by tag operations.
type Item struct {
	Fields map[string]any
	TagKey string
	Tags   []string
}

// BuiltinCategories lists the categories every document carries, in display order.
var BuiltinCategories = []string{
	"Technik",
	"Analyse",
	"Dokumentation",
	"Organisation",
	"Soziales",
	"Sonstiges",
}

var builtinColors = map[string]string{
	"Technik":       "rgba(239, 68, 68, 0.8)",
	"Analyse":       "rgba(59, 130, 246, 0.8)",
	"Dokumentation": "rgba(245, 158, 11, 0.8)",
	"Organisation":  "rgba(16, 185, 129, 0.8)",
	"Soziales":      "rgba(139, 92, 246, 0.8)",
	"Sonstiges":     "rgba(107, 114, 128, 0.8)",
}

// DefaultCategoryStyles returns a fresh copy of the built-in category styles.
func DefaultCategoryStyles() map[string]any {
	styles := make(map[string]any, len(BuiltinCategories))
	for _, name := range BuiltinCategories {
		styles[name] = Record{"color": builtinColors[name]}
	}

	return styles
}

// NewDocument returns the default document for a context: display name
// derived from the key, empty collections and the built-in category styles.
func NewDocument(identifier string) *Document {
	doc := &Document{}
	doc.Backfill(identifier)

	return doc
}

// Backfill fills every missing top-level field with its default and adds
// built-in categories missing from CategoryStyles. Existing values, including
// styles for built-in categories, are left as they are.
func (d *Document) Backfill(identifier string) {
	if d.ContextName == "" {
		d.ContextName = Capitalize(ResolveContextKey(identifier))
	}

	d.normalize()

	for name, style := range DefaultCategoryStyles() {
		if _, ok := d.CategoryStyles[name]; !ok {
			d.CategoryStyles[name] = style
		}
	}
}

// normalize replaces nil collections with empty ones so the encoded form
// always carries every top-level key with the right shape.
func (d *Document) normalize() {
	if d.AppData == nil {
		d.AppData = map[string]*Section{}
	}

	if d.TagCategoryMap == nil {
		d.TagCategoryMap = map[string]string{}
	}

	if d.Projects == nil {
		d.Projects = []Record{}
	}

	if d.Todos == nil {
		d.Todos = []*Item{}
	}

	if d.CategoryStyles == nil {
		d.CategoryStyles = map[string]any{}
	}
}

// HasCategory reports whether name is a known category of this document.
func (d *Document) HasCategory(name string) bool {
	_, ok := d.CategoryStyles[name]

	return ok
}

// EachTagList calls fn with the tag list of every tagged item in Todos and
// in the entries of every AppData section, and stores the returned slice
// back on the item. Both tag operations go through here so they always see
// the same set of items.
func (d *Document) EachTagList(fn func(tags []string) []string) {
	for _, item := range d.Todos {
		item.applyTags(fn)
	}

	for _, section := range d.AppData {
		if section == nil {
			continue
		}

		for _, item := range section.Entries {
			item.applyTags(fn)
		}
	}
}

func (it *Item) applyTags(fn func(tags []string) []string) {
	if it == nil || it.TagKey == "" {
		return
	}

	it.Tags = fn(it.Tags)
}

// --- Encoding ---

// DecodeDocument parses a document from its JSON form. It fails with
// [ErrCorrupt] on a syntax error, with [ErrNotObject] if data is not a JSON
// object and with [ErrInvalidDocument] if a known field has the wrong shape.
// The result is not backfilled.
func DecodeDocument(data []byte) (*Document, error) {
	return decodeDocument(data, false)
}

// DecodeStoredDocument is [DecodeDocument] for files already on disk: a
// known field with the wrong shape does not fail the document. Its value is
// kept verbatim in Extra and written back unchanged, while the typed field
// stays at its default.
func DecodeStoredDocument(data []byte) (*Document, error) {
	return decodeDocument(data, true)
}

func decodeDocument(data []byte, keepInvalid bool) (*Document, error) {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}

	if raw == nil {
		return nil, ErrNotObject
	}

	var doc Document

	err = doc.decodeFields(raw, keepInvalid)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Encode returns the on-disk form: indented with four spaces, no HTML
// escaping, trailing newline.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	err := enc.Encode(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	return buf.Bytes(), nil
}

// Tree returns the document as a generic JSON object.
func (d *Document) Tree() (map[string]any, error) {
	data, err := marshalNoEscape(d)
	if err != nil {
		return nil, err
	}

	var tree map[string]any

	err = decodeNumbers(data, &tree)
	if err != nil {
		return nil, err
	}

	return tree, nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		keyContextName:    d.ContextName,
		keyAppData:        nonNilMap(d.AppData),
		keyTagCategoryMap: nonNilMap(d.TagCategoryMap),
		keyProjects:       nonNilSlice(d.Projects),
		keyTodos:          nonNilSlice(d.Todos),
		keyCategoryStyles: nonNilMap(d.CategoryStyles),
	}

	// Extra goes last: a known field kept verbatim by DecodeStoredDocument
	// replaces its typed default.
	maps.Copy(out, d.Extra)

	return marshalNoEscape(out)
}

// KeptVerbatim reports whether the known field key had the wrong shape on
// disk and is carried in Extra instead of its typed field.
func (d *Document) KeptVerbatim(key string) bool {
	if !isKnownKey(key) {
		return false
	}

	_, ok := d.Extra[key]

	return ok
}

func isKnownKey(key string) bool {
	switch key {
	case keyContextName, keyAppData, keyTagCategoryMap, keyProjects, keyTodos, keyCategoryStyles:
		return true
	}

	return false
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotObject, err)
	}

	if raw == nil {
		return ErrNotObject
	}

	return d.decodeFields(raw, false)
}

func (d *Document) decodeFields(raw map[string]json.RawMessage, keepInvalid bool) error {
	*d = Document{}

	keep := func(key string, value json.RawMessage) error {
		var v any

		err := decodeNumbers(value, &v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, key, err)
		}

		if d.Extra == nil {
			d.Extra = map[string]any{}
		}

		d.Extra[key] = v

		return nil
	}

	for key, value := range raw {
		var target any

		switch key {
		case keyContextName:
			target = &d.ContextName
		case keyAppData:
			target = &d.AppData
		case keyTagCategoryMap:
			target = &d.TagCategoryMap
		case keyProjects:
			target = &d.Projects
		case keyTodos:
			target = &d.Todos
		case keyCategoryStyles:
			target = &d.CategoryStyles
		default:
			err := keep(key, value)
			if err != nil {
				return err
			}

			continue
		}

		err := decodeNumbers(value, target)
		if err == nil {
			continue
		}

		if !keepInvalid {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, key, err)
		}

		d.clearField(key)

		err = keep(key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// clearField resets the typed field for key after a failed decode, which
// may have left it partially filled.
func (d *Document) clearField(key string) {
	switch key {
	case keyContextName:
		d.ContextName = ""
	case keyAppData:
		d.AppData = nil
	case keyTagCategoryMap:
		d.TagCategoryMap = nil
	case keyProjects:
		d.Projects = nil
	case keyTodos:
		d.Todos = nil
	case keyCategoryStyles:
		d.CategoryStyles = nil
	}
}

func (s Section) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+1)
	maps.Copy(out, s.Extra)
	out[keyEntries] = nonNilSlice(s.Entries)

	return marshalNoEscape(out)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return fmt.Errorf("section must be an object: %w", err)
	}

	*s = Section{}

	for key, value := range fields {
		if key == keyEntries {
			err := decodeNumbers(value, &s.Entries)
			if err != nil {
				return fmt.Errorf("entries: %w", err)
			}

			continue
		}

		var v any

		err := decodeNumbers(value, &v)
		if err != nil {
			return err
		}

		if s.Extra == nil {
			s.Extra = map[string]any{}
		}

		s.Extra[key] = v
	}

	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(it.Fields)+1)
	maps.Copy(out, it.Fields)

	if it.TagKey != "" {
		out[it.TagKey] = nonNilSlice(it.Tags)
	}

	return marshalNoEscape(out)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]any

	err := decodeNumbers(data, &fields)
	if err != nil {
		return fmt.Errorf("item must be an object: %w", err)
	}

	*it = Item{Fields: fields}

	// The first tag field present decides, even when its value is not a
	// string list; the item is then untagged and both fields stay opaque.
	for _, key := range []string{keyTags, keyTagNames} {
		value, present := fields[key]
		if !present {
			continue
		}

		tags, ok := stringList(value)
		if ok {
			it.TagKey = key
			it.Tags = tags

			delete(it.Fields, key)
		}

		break
	}

	return nil
}

// stringList converts a decoded JSON array of strings. ok is false for
// anything else, including a missing value.
func stringList(v any) ([]string, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(list))

	for _, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, false
		}

		out = append(out, s)
	}

	return out, true
}

// decodeNumbers decodes exactly one JSON value, keeping numbers as
// [json.Number]. Anything after the value is an error.
func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	err := dec.Decode(v)
	if err != nil {
		return err
	}

	if dec.Decode(&struct{}{}) != io.EOF {
		return errTrailingData
	}

	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	err := enc.Encode(v)
	if err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func nonNilMap[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return M{}
	}

	return m
}

func nonNilSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}

	return s
}
