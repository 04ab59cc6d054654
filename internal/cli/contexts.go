package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	flag "github.com/spf13/pflag"
)

// ContextsCmd returns the contexts command.
func ContextsCmd(a *app) *Command {
	flags := flag.NewFlagSet("contexts", flag.ContinueOnError)
	asJSON := flags.Bool("json", false, "Print as JSON")

	return &Command{
		Flags: flags,
		Usage: "contexts [--json]",
		Group: GroupContexts,
		Short: "List contexts",
		Long:  "List every context as id and display name, sorted by name. Creates the default context if there is none.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			err := checkArgs(args, 0, 0, "")
			if err != nil {
				return err
			}

			return execContexts(io, a, *asJSON)
		},
	}
}

func execContexts(io *IO, a *app, asJSON bool) error {
	contexts, err := a.svc.ListContexts()
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(contexts, "", "  ")
		if err != nil {
			return err
		}

		io.Println(string(data))

		return nil
	}

	for _, c := range contexts {
		io.Printf("%s\t%s\n", c.ID, c.Name)
	}

	return nil
}

// CreateCmd returns the create command.
func CreateCmd(a *app) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	name := flags.StringP("name", "n", "", "Display `name` (default: capitalized id)")

	return &Command{
		Flags: flags,
		Usage: "create <id> [--name <name>]",
		Group: GroupContexts,
		Short: "Create a context",
		Long:  "Create a new context with default content. Fails if a context with the same key exists.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			err := checkArgs(args, 1, 1, "<id>")
			if err != nil {
				return err
			}

			err = a.svc.CreateContext(args[0], *name)
			if err != nil {
				return err
			}

			io.Println(doku.ResolveContextKey(args[0]))

			return nil
		},
	}
}

// RenameCmd returns the rename command.
func RenameCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rename", flag.ContinueOnError),
		Usage: "rename <context> <name>",
		Group: GroupContexts,
		Short: "Change a context's display name",
		Exec: func(_ context.Context, io *IO, args []string) error {
			err := checkArgs(args, 2, 2, "<context> <name>")
			if err != nil {
				return err
			}

			err = a.svc.Rename(args[0], args[1])
			if err != nil {
				return err
			}

			io.Println("renamed", doku.ResolveContextKey(args[0]))

			return nil
		},
	}
}

// checkArgs validates the positional argument count. names describes the
// expected arguments for the error message.
func checkArgs(args []string, minArgs, maxArgs int, names string) error {
	if len(args) < minArgs {
		return fmt.Errorf("%w: expected %s", ErrMissingArgs, names)
	}

	if len(args) > maxArgs {
		return fmt.Errorf("%w: %v", ErrTooManyArgs, args[maxArgs:])
	}

	return nil
}
