package doku_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	"github.com/google/go-cmp/cmp"
)

func mustDecode(t *testing.T, data string) *doku.Document {
	t.Helper()

	doc, err := doku.DecodeDocument([]byte(data))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}

	return doc
}

func Test_NewDocument_Has_Defaults(t *testing.T) {
	t.Parallel()

	doc := doku.NewDocument("work")

	if got, want := doc.ContextName, "Work"; got != want {
		t.Errorf("ContextName=%q, want=%q", got, want)
	}

	if doc.AppData == nil || doc.TagCategoryMap == nil || doc.Projects == nil ||
		doc.Todos == nil || doc.CategoryStyles == nil {
		t.Fatalf("collections must be non-nil: %+v", doc)
	}

	if diff := cmp.Diff(doku.DefaultCategoryStyles(), doc.CategoryStyles); diff != "" {
		t.Errorf("CategoryStyles mismatch (-want +got):\n%s", diff)
	}
}

func Test_Decode_Resolves_Tag_Field_Once(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{
		"todos": [
			{"text": "a", "tags": ["x", "y"]},
			{"text": "b", "tagNames": ["z"]},
			{"text": "c"},
			{"text": "d", "tags": "not-a-list"},
			{"text": "e", "tags": ["t"], "tagNames": ["n"]},
			{"text": "f", "tags": null, "tagNames": ["n"]}
		]
	}`)

	type view struct {
		TagKey string
		Tags   []string
	}

	var got []view
	for _, it := range doc.Todos {
		got = append(got, view{it.TagKey, it.Tags})
	}

	want := []view{
		{"tags", []string{"x", "y"}},
		{"tagNames", []string{"z"}},
		{"", nil},
		{"", nil},
		{"tags", []string{"t"}},
		{"", nil},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tag resolution mismatch (-want +got):\n%s", diff)
	}

	if got, want := doc.Todos[3].Fields["tags"], any("not-a-list"); got != want {
		t.Errorf("opaque tags field=%v, want=%v", got, want)
	}

	if diff := cmp.Diff([]any{"n"}, doc.Todos[4].Fields["tagNames"]); diff != "" {
		t.Errorf("tagNames should stay opaque when tags is present (-want +got):\n%s", diff)
	}

	nullTags := doc.Todos[5]

	if v, ok := nullTags.Fields["tags"]; !ok || v != nil {
		t.Errorf("null tags field=%v (present=%v), want kept as null", v, ok)
	}

	if diff := cmp.Diff([]any{"n"}, nullTags.Fields["tagNames"]); diff != "" {
		t.Errorf("tagNames should stay opaque when tags is null (-want +got):\n%s", diff)
	}

	encoded := mustEncode(t, doc)
	for _, want := range []string{`"tags": null`, `"tagNames": [`} {
		if !strings.Contains(encoded, want) {
			t.Errorf("encoded document missing %s:\n%s", want, encoded)
		}
	}
}

func Test_DecodeStoredDocument_Keeps_Wrongly_Typed_Fields(t *testing.T) {
	t.Parallel()

	in := []byte(`{"contextName": "Work", "todos": [{"text": "keep me", "tags": ["a"]}], "projects": {"p": 1}}`)

	if _, err := doku.DecodeDocument(in); !errors.Is(err, doku.ErrInvalidDocument) {
		t.Fatalf("DecodeDocument err=%v, want=%v", err, doku.ErrInvalidDocument)
	}

	doc, err := doku.DecodeStoredDocument(in)
	if err != nil {
		t.Fatalf("DecodeStoredDocument: %v", err)
	}

	if got, want := doc.ContextName, "Work"; got != want {
		t.Errorf("ContextName=%q, want=%q", got, want)
	}

	if got, want := doc.Todos[0].Tags, []string{"a"}; !cmp.Equal(got, want) {
		t.Errorf("todo tags=%v, want=%v", got, want)
	}

	if doc.Projects != nil {
		t.Errorf("Projects=%v, want nil", doc.Projects)
	}

	if !doc.KeptVerbatim("projects") || doc.KeptVerbatim("todos") {
		t.Errorf("KeptVerbatim projects=%v todos=%v, want true false",
			doc.KeptVerbatim("projects"), doc.KeptVerbatim("todos"))
	}

	doc.Backfill("work")

	if got := mustEncode(t, doc); !strings.Contains(got, `"projects": {
        "p": 1
    }`) {
		t.Errorf("wrongly typed projects not written back as they were:\n%s", got)
	}
}

func Test_Decode_Rejects_Trailing_Data(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`{} garbage`, `{"a": 1} {"b": 2}`, `{"todos": [{"text": "x"} ]}]`} {
		if _, err := doku.DecodeDocument([]byte(in)); err == nil {
			t.Errorf("DecodeDocument(%q) succeeded, want error", in)
		}
	}

	if _, err := doku.DecodeDocument([]byte("{}\n\t ")); err != nil {
		t.Errorf("trailing whitespace rejected: %v", err)
	}
}

func Test_Encode_Round_Trips_Untouched_Fields(t *testing.T) {
	t.Parallel()

	in := `{
		"contextName": "Arbeit",
		"appData": {
			"2024-05-06": {
				"status": "dokumentiert",
				"entries": [{"tagNames": ["Planung"], "time": 1.25, "note": "<b>kickoff</b>"}]
			}
		},
		"tagCategoryMap": {"Planung": "Organisation"},
		"projects": [{"name": "Alpha", "budget": 12345678901234567890}],
		"todos": [{"text": "call", "done": false, "tags": []}],
		"categoryStyles": {"Technik": {"color": "red"}, "Custom": "blue"},
		"settings": {"theme": "dark"}
	}`

	doc := mustDecode(t, in)

	encoded, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var want, got any
	if err := json.Unmarshal([]byte(in), &want); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := json.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("encoded output is not JSON: %v\n%s", err, encoded)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(string(encoded), "12345678901234567890") {
		t.Errorf("large number lost precision:\n%s", encoded)
	}

	if !strings.Contains(string(encoded), "<b>kickoff</b>") {
		t.Errorf("HTML should not be escaped:\n%s", encoded)
	}

	if !strings.Contains(string(encoded), "\n    \"appData\"") {
		t.Errorf("expected four-space indentation:\n%s", encoded)
	}
}

func Test_Decode_Rejects_Non_Objects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`[]`, `"text"`, `42`, `null`} {
		_, err := doku.DecodeDocument([]byte(in))
		if !errors.Is(err, doku.ErrNotObject) {
			t.Errorf("DecodeDocument(%s) err=%v, want=%v", in, err, doku.ErrNotObject)
		}
	}
}

func Test_Decode_Reports_Corrupt_Syntax(t *testing.T) {
	t.Parallel()

	_, err := doku.DecodeDocument([]byte(`{"todos": [`))
	if !errors.Is(err, doku.ErrCorrupt) {
		t.Fatalf("err=%v, want=%v", err, doku.ErrCorrupt)
	}
}

func Test_Decode_Rejects_Wrong_Field_Shapes(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"todos": "x"}`,
		`{"todos": [1]}`,
		`{"projects": {"a": 1}}`,
		`{"tagCategoryMap": {"a": 1}}`,
		`{"appData": {"day": "x"}}`,
		`{"appData": {"day": {"entries": [true]}}}`,
		`{"contextName": 5}`,
	}

	for _, in := range inputs {
		_, err := doku.DecodeDocument([]byte(in))
		if !errors.Is(err, doku.ErrInvalidDocument) {
			t.Errorf("DecodeDocument(%s) err=%v, want=%v", in, err, doku.ErrInvalidDocument)
		}
	}
}

func Test_Backfill_Keeps_Existing_Values(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{
		"contextName": "Mine",
		"categoryStyles": {"Technik": {"color": "black"}, "Extra": {"color": "pink"}}
	}`)

	doc.Backfill("other")

	if got, want := doc.ContextName, "Mine"; got != want {
		t.Errorf("ContextName=%q, want=%q", got, want)
	}

	if diff := cmp.Diff(doku.Record{"color": "black"}, doc.CategoryStyles["Technik"]); diff != "" {
		t.Errorf("built-in override must be kept (-want +got):\n%s", diff)
	}

	if _, ok := doc.CategoryStyles["Extra"]; !ok {
		t.Error("user category must be kept")
	}

	for _, name := range doku.BuiltinCategories {
		if !doc.HasCategory(name) {
			t.Errorf("missing built-in category %s", name)
		}
	}

	if doc.Todos == nil || doc.Projects == nil || doc.AppData == nil || doc.TagCategoryMap == nil {
		t.Errorf("missing fields not backfilled: %+v", doc)
	}
}

func Test_Backfill_Uses_Capitalized_Key_For_Missing_Name(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{}`)
	doc.Backfill("my projects")

	if got, want := doc.ContextName, "Myprojects"; got != want {
		t.Fatalf("ContextName=%q, want=%q", got, want)
	}
}

func Test_EachTagList_Visits_Todos_And_Entries(t *testing.T) {
	t.Parallel()

	doc := mustDecode(t, `{
		"appData": {
			"d1": {"entries": [{"tagNames": ["a"]}, {"note": "untagged"}]},
			"d2": null,
			"d3": {"entries": [{"tags": ["b", "c"]}]}
		},
		"todos": [{"tags": ["d"]}, null]
	}`)

	var seen []string

	doc.EachTagList(func(tags []string) []string {
		seen = append(seen, tags...)

		return tags
	})

	if got, want := len(seen), 4; got != want {
		t.Fatalf("visited %d tags (%v), want=%d", got, seen, want)
	}
}
