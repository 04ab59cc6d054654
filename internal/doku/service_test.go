package doku_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"
	"github.com/oliverschmidt99/daily-doc-app/internal/fs"

	"github.com/google/go-cmp/cmp"
)

func newTestService(t *testing.T) *doku.Service {
	t.Helper()

	svc, _ := newTestServiceDir(t)

	return svc
}

func newTestServiceDir(t *testing.T) (*doku.Service, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "data")

	return doku.NewService(doku.NewStore(fs.NewReal(), dir, nil)), dir
}

func Test_Service_CreateContext_Validates_ID(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.CreateContext("  --  ", "Nope")
	if !errors.Is(err, doku.ErrInvalidContextID) {
		t.Fatalf("err=%v, want=%v", err, doku.ErrInvalidContextID)
	}

	err = svc.CreateContext("proj", "  Projekte  ")
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}

	err = svc.CreateContext("proj", "Again")
	if !errors.Is(err, doku.ErrContextExists) {
		t.Fatalf("err=%v, want=%v", err, doku.ErrContextExists)
	}

	got, err := svc.ListContexts()
	if err != nil {
		t.Fatalf("ListContexts: %v", err)
	}

	if diff := cmp.Diff([]doku.ContextInfo{{ID: "proj", Name: "Projekte"}}, got); diff != "" {
		t.Fatalf("ListContexts mismatch (-want +got):\n%s", diff)
	}
}

func Test_Service_Save_Backfills_Missing_Fields(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.Save("work", mustDecode(t, `{"todos": [{"text": "a"}]}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	doc := svc.Load("work")

	if got, want := doc.ContextName, "Work"; got != want {
		t.Errorf("ContextName=%q, want=%q", got, want)
	}

	if got, want := len(doc.Todos), 1; got != want {
		t.Errorf("len(Todos)=%d, want=%d", got, want)
	}

	if err := svc.Save("work", nil); !errors.Is(err, doku.ErrInvalidDocument) {
		t.Errorf("Save(nil) err=%v, want=%v", err, doku.ErrInvalidDocument)
	}
}

func Test_Service_Rename_Changes_Only_Display_Name(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.Save("work", mustDecode(t, `{"contextName": "Old", "todos": [{"text": "keep"}]}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.Rename("work", "   "); !errors.Is(err, doku.ErrContextNameRequired) {
		t.Fatalf("Rename(blank) err=%v, want=%v", err, doku.ErrContextNameRequired)
	}

	err = svc.Rename("work", "Neu")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}

	doc := svc.Load("work")

	if got, want := doc.ContextName, "Neu"; got != want {
		t.Errorf("ContextName=%q, want=%q", got, want)
	}

	if got, want := len(doc.Todos), 1; got != want {
		t.Errorf("len(Todos)=%d, want=%d", got, want)
	}
}

func Test_Service_EditTag_Renames_Urgent_To_Important(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.Save("work", mustDecode(t, `{
		"tagCategoryMap": {"urgent": "Organisation"},
		"todos": [{"text": "t", "tags": ["urgent"]}],
		"appData": {"d": {"entries": [{"tagNames": ["urgent", "x"]}]}}
	}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	err = svc.EditTag("work", "urgent", "important", "Analyse")
	if err != nil {
		t.Fatalf("EditTag: %v", err)
	}

	doc := svc.Load("work")

	if diff := cmp.Diff(map[string]string{"important": "Analyse"}, doc.TagCategoryMap); diff != "" {
		t.Errorf("TagCategoryMap mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"important"}, doc.Todos[0].Tags); diff != "" {
		t.Errorf("todo tags mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"important", "x"}, doc.AppData["d"].Entries[0].Tags); diff != "" {
		t.Errorf("entry tags mismatch (-want +got):\n%s", diff)
	}
}

func Test_Service_EditTag_Category_Handling(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.Save("work", mustDecode(t, `{"tagCategoryMap": {"a": "Technik", "b": "Analyse"}}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	err = svc.EditTag("work", "a", "c", "")
	if err != nil {
		t.Fatalf("EditTag: %v", err)
	}

	if got, want := svc.Load("work").TagCategoryMap["c"], "Technik"; got != want {
		t.Errorf("empty category should keep old one: got=%q, want=%q", got, want)
	}

	tests := []struct {
		name     string
		old, new string
		category string
		wantErr  error
	}{
		{"unknown category", "c", "d", "Nope", doku.ErrUnknownCategory},
		{"missing tag", "zzz", "d", "", doku.ErrTagNotFound},
		{"collision", "c", "b", "", doku.ErrTagExists},
		{"blank new name", "c", " ", "", doku.ErrTagNameRequired},
		{"blank old name", "", "d", "", doku.ErrTagNameRequired},
	}

	for _, tt := range tests {
		err := svc.EditTag("work", tt.old, tt.new, tt.category)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: err=%v, want=%v", tt.name, err, tt.wantErr)
		}
	}

	if diff := cmp.Diff(map[string]string{"c": "Technik", "b": "Analyse"}, svc.Load("work").TagCategoryMap); diff != "" {
		t.Errorf("failed edits changed the document (-want +got):\n%s", diff)
	}
}

func Test_Service_DeleteTag(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.Save("work", mustDecode(t, `{
		"tagCategoryMap": {"a": "Technik"},
		"todos": [{"tags": ["a", "b"]}]
	}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.DeleteTag("work", ""); !errors.Is(err, doku.ErrTagNameRequired) {
		t.Fatalf("DeleteTag(\"\") err=%v, want=%v", err, doku.ErrTagNameRequired)
	}

	for range 2 {
		err = svc.DeleteTag("work", "a")
		if err != nil {
			t.Fatalf("DeleteTag: %v", err)
		}
	}

	doc := svc.Load("work")

	if got := len(doc.TagCategoryMap); got != 0 {
		t.Errorf("TagCategoryMap=%v, want empty", doc.TagCategoryMap)
	}

	if diff := cmp.Diff([]string{"b"}, doc.Todos[0].Tags); diff != "" {
		t.Errorf("todo tags mismatch (-want +got):\n%s", diff)
	}
}

func Test_Service_ImportDocument(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	err := svc.Save("work", mustDecode(t, `{"contextName": "Work", "projects": [{"name": "A"}]}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	err = svc.ImportDocument("work", []byte(`{"contextName": "Other", "projects": [{"name": "B"}], "extra": 1}`))
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	doc := svc.Load("work")

	if got, want := doc.ContextName, "Work"; got != want {
		t.Errorf("ContextName=%q, want=%q", got, want)
	}

	if got, want := doc.Projects[0]["name"], any("B"); got != want {
		t.Errorf("project name=%v, want=%v", got, want)
	}

	if _, ok := doc.Extra["extra"]; !ok {
		t.Error("unknown imported key was dropped")
	}

	for _, bad := range []string{`[]`, `"x"`, `null`, `{`, ``, `{"todos": 5}`} {
		err := svc.ImportDocument("work", []byte(bad))
		if !errors.Is(err, doku.ErrInvalidImport) {
			t.Errorf("ImportDocument(%q) err=%v, want=%v", bad, err, doku.ErrInvalidImport)
		}
	}

	if got, want := svc.Load("work").Projects[0]["name"], any("B"); got != want {
		t.Errorf("rejected imports changed the document: project name=%v", got)
	}
}

func Test_Service_DeleteTag_Keeps_Wrongly_Typed_Fields(t *testing.T) {
	t.Parallel()

	svc, dir := newTestServiceDir(t)

	writeRaw(t, dir, "doku_work.json",
		`{"contextName":"Work","todos":[{"text":"keep me","tags":["a"]}],"projects":{"p":1}}`)

	err := svc.DeleteTag("work", "nonexistent")
	if err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	stored := readRaw(t, filepath.Join(dir, "doku_work.json"))

	for _, want := range []string{`"text": "keep me"`, `"projects": {`, `"p": 1`} {
		if !strings.Contains(stored, want) {
			t.Errorf("stored document lost %s:\n%s", want, stored)
		}
	}

	if got, want := svc.Load("work").Todos[0].Tags, []string{"a"}; !cmp.Equal(got, want) {
		t.Errorf("todo tags=%v, want=%v", got, want)
	}
}

func Test_Service_Mutations_Refuse_Corrupt_Documents(t *testing.T) {
	t.Parallel()

	const corrupt = `{"contextName": "Work", "todos": [{"text": "half`

	mutations := map[string]func(*doku.Service) error{
		"Rename":         func(s *doku.Service) error { return s.Rename("work", "New") },
		"EditTag":        func(s *doku.Service) error { return s.EditTag("work", "a", "b", "") },
		"DeleteTag":      func(s *doku.Service) error { return s.DeleteTag("work", "a") },
		"ImportDocument": func(s *doku.Service) error { return s.ImportDocument("work", []byte(`{"x": 1}`)) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, dir := newTestServiceDir(t)
			writeRaw(t, dir, "doku_work.json", corrupt)

			err := mutate(svc)
			if !errors.Is(err, doku.ErrUnreadable) {
				t.Fatalf("err=%v, want=%v", err, doku.ErrUnreadable)
			}

			if got := readRaw(t, filepath.Join(dir, "doku_work.json")); got != corrupt {
				t.Fatalf("corrupt file was overwritten: %q", got)
			}
		})
	}
}

func Test_Service_ImportDocument_Rejects_Trailing_Data(t *testing.T) {
	t.Parallel()

	svc, dir := newTestServiceDir(t)

	for _, in := range []string{`{"extra":1} garbage garbage`, `{"a": 1} {"b": 2}`, `{"a": 1}]`} {
		err := svc.ImportDocument("x", []byte(in))
		if !errors.Is(err, doku.ErrInvalidImport) {
			t.Errorf("ImportDocument(%q) err=%v, want=%v", in, err, doku.ErrInvalidImport)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "doku_x.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rejected import wrote a file: stat err=%v", err)
	}
}
