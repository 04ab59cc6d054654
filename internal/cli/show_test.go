package cli_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/oliverschmidt99/daily-doc-app/internal/cli"
)

func Test_Show_Missing_Context_Prints_Defaults_Without_Writing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("show", "work")

	var doc map[string]any
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, stdout)
	}

	if got, want := doc["contextName"], any("Work"); got != want {
		t.Errorf("contextName=%v, want=%v", got, want)
	}

	for _, key := range []string{"appData", "tagCategoryMap", "projects", "todos", "categoryStyles"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}

	if _, err := os.Stat(c.ContextPath("work")); !os.IsNotExist(err) {
		t.Fatalf("show must not create the context file, stat err=%v", err)
	}
}

func Test_Show_Defaults_To_Default_Context(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteContext("default", `{"contextName": "Mein Default", "custom": [1, 2]}`)

	stdout := c.MustRun("show")

	cli.AssertContains(t, stdout, `"contextName": "Mein Default"`)
	cli.AssertContains(t, stdout, `"custom"`)
	cli.AssertContains(t, stdout, `"Technik"`)
}

func Test_Show_Corrupt_Context_Warns(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteContext("work", `{"todos": [`)

	stdout, stderr, code := c.Run("show", "work")

	if got, want := code, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, `"contextName": "Work"`)
	cli.AssertContains(t, stderr, "warning: corrupt document")

	if got, want := c.ReadContext("work"), `{"todos": [`; got != want {
		t.Fatalf("corrupt file modified: %q", got)
	}
}
