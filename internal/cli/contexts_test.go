package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oliverschmidt99/daily-doc-app/internal/cli"
	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	"github.com/google/go-cmp/cmp"
)

func Test_Contexts_Creates_Default_When_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("contexts")
	if got, want := stdout, "default\tDefault"; got != want {
		t.Fatalf("stdout=%q, want=%q", got, want)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(c.ReadContext("default")), &doc); err != nil {
		t.Fatalf("default context is not JSON: %v", err)
	}

	styles, _ := doc["categoryStyles"].(map[string]any)
	for _, name := range doku.BuiltinCategories {
		if _, ok := styles[name]; !ok {
			t.Errorf("default context missing category %s", name)
		}
	}
}

func Test_Create_And_List_Contexts(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got, want := c.MustRun("create", "My Work", "--name", "Arbeit"), "MyWork"; got != want {
		t.Fatalf("create stdout=%q, want=%q", got, want)
	}

	c.MustRun("create", "home")

	stdout := c.MustRun("contexts", "--json")

	var got []doku.ContextInfo
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("contexts --json: %v\n%s", err, stdout)
	}

	want := []doku.ContextInfo{{ID: "MyWork", Name: "Arbeit"}, {ID: "home", Name: "Home"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("contexts mismatch (-want +got):\n%s", diff)
	}
}

func Test_Create_Existing_Context_Fails(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "work", "--name", "First")

	before := c.ReadContext("work")

	stderr := c.MustFail("create", "work!", "--name", "Second")
	cli.AssertContains(t, stderr, "context already exists")

	if got := c.ReadContext("work"); got != before {
		t.Fatalf("existing context modified:\n%s", got)
	}
}

func Test_Create_Invalid_ID_Fails(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("create", "!!!")

	cli.AssertContains(t, stderr, "context id must contain letters or digits")
}

func Test_Rename_Context(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "work")
	c.MustRun("rename", "work", "Beruf")

	if got, want := c.MustRun("contexts"), "work\tBeruf"; got != want {
		t.Fatalf("contexts=%q, want=%q", got, want)
	}

	cli.AssertContains(t, c.MustFail("rename", "work", " "), "context name is required")
}

func Test_Data_Dir_Override(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("--data-dir", "elsewhere", "create", "x")

	if _, err := os.Stat(filepath.Join(c.Dir, "elsewhere", "doku_x.json")); err != nil {
		t.Fatalf("context not created in override dir: %v", err)
	}

	c.Env["DOKU_DATA_DIR"] = "fromenv"
	c.MustRun("create", "y")

	if _, err := os.Stat(filepath.Join(c.Dir, "fromenv", "doku_y.json")); err != nil {
		t.Fatalf("context not created in env dir: %v", err)
	}
}
