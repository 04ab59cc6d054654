package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Help groups, in the order doku's usage lists them.
const (
	GroupContexts    = "Contexts"
	GroupTags        = "Tags"
	GroupInteractive = "Interactive"
	GroupOther       = "Other"
)

var groupOrder = []string{GroupContexts, GroupTags, GroupInteractive, GroupOther}

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	// The FlagSet name is not used - command identity comes from Usage.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "doku" in help.
	// Includes the command name and arguments/flags.
	// Examples: "show [context]", "create <id> [--name <name>]"
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Group is the heading the command is listed under in the global
	// usage. Empty means [GroupOther].
	Group string

	// Examples are full invocations shown under "Examples:" in command help.
	Examples []string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display, with
// the usage column padded to width.
func (c *Command) HelpLine(width int) string {
	return fmt.Sprintf("    %-*s  %s", width, c.Usage, c.Short)
}

func (c *Command) group() string {
	if c.Group == "" {
		return GroupOther
	}

	return c.Group
}

// writeCommandList prints commands under their group headings. Groups
// without commands are skipped; commands keep their relative order.
func writeCommandList(w io.Writer, commands []*Command) {
	width := 0
	for _, c := range commands {
		width = max(width, len(c.Usage))
	}

	for _, group := range groupOrder {
		var lines []string

		for _, c := range commands {
			if c.group() == group {
				lines = append(lines, c.HelpLine(width))
			}
		}

		if len(lines) == 0 {
			continue
		}

		fprintln(w, "  "+group+":")

		for _, line := range lines {
			fprintln(w, line)
		}
	}
}

// PrintHelp prints the full help output for "doku <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: doku", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}

	if len(c.Examples) > 0 {
		o.Println()
		o.Println("Examples:")

		for _, ex := range c.Examples {
			o.Println("  doku", ex)
		}
	}
}

// Run parses flags and executes the command. Returns exit code.
// Handles error printing internally for consistent output ordering.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
