package cli_test

import (
	"testing"

	"github.com/oliverschmidt99/daily-doc-app/internal/cli"

	"github.com/google/go-cmp/cmp"
)

func Test_Shell_Edits_Tags_When_Scripted(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteContext("work", taggedContext)

	script := `tags
rename urgent "very urgent" Technik
delete home
use home
contexts
exit
bogus-after-exit
`

	stdout, stderr, code := c.RunWithInput(script, "shell", "work")
	if code != 0 {
		t.Fatalf("shell failed with exit code %d\nstderr: %s", code, stderr)
	}

	cli.AssertContains(t, stdout, "home\tSoziales\nurgent\tOrganisation")
	cli.AssertContains(t, stdout, "renamed tag urgent -> very urgent")
	cli.AssertContains(t, stdout, "deleted tag home")
	cli.AssertContains(t, stdout, "using home")
	cli.AssertContains(t, stdout, "  work\tWork")
	cli.AssertNotContains(t, stderr, "bogus-after-exit")

	doc := show(t, c, "work")

	if diff := cmp.Diff(map[string]string{"very urgent": "Technik"}, doc.TagCategoryMap); diff != "" {
		t.Errorf("tagCategoryMap mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"very urgent"}, doc.Todos[0].Tags); diff != "" {
		t.Errorf("todo tags mismatch (-want +got):\n%s", diff)
	}
}

func Test_Shell_Reports_Errors_And_Keeps_Going(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteContext("work", taggedContext)

	script := `bogus
rename nope x
use !!!
delete
# a comment
show
`

	stdout, stderr, code := c.RunWithInput(script, "shell", "work")
	if code != 0 {
		t.Fatalf("shell failed with exit code %d\nstderr: %s", code, stderr)
	}

	cli.AssertContains(t, stderr, "unknown command: bogus")
	cli.AssertContains(t, stderr, "tag not found")
	cli.AssertContains(t, stderr, "context id must contain letters or digits")
	cli.AssertContains(t, stderr, "usage: delete <tag>")
	cli.AssertContains(t, stdout, `"contextName": "Work"`)
}

func Test_Shell_Sets_Display_Name_When_Scripted(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "work")

	_, stderr, code := c.RunWithInput("name Meine Arbeit\n", "shell", "work")
	if code != 0 {
		t.Fatalf("shell failed with exit code %d\nstderr: %s", code, stderr)
	}

	if got, want := c.MustRun("contexts"), "work\tMeine Arbeit"; got != want {
		t.Fatalf("contexts=%q, want=%q", got, want)
	}
}
