package cli

import (
	"context"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	flag "github.com/spf13/pflag"
)

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show [context]",
		Group: GroupContexts,
		Short: "Print a context's document",
		Long: "Print the full document of a context as JSON, with missing fields filled in.\n" +
			"A corrupt or unreadable file prints the defaults and exits with a warning.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			err := checkArgs(args, 0, 1, "[context]")
			if err != nil {
				return err
			}

			id := doku.DefaultContext
			if len(args) == 1 {
				id = args[0]
			}

			return execShow(io, a, id)
		},
	}
}

func execShow(io *IO, a *app, id string) error {
	res := a.store.Read(id)

	doc := res.Document

	switch res.Status {
	case doku.ReadOK:
	case doku.ReadCorrupt:
		io.Warn("corrupt document "+res.Path+" ("+res.Err.Error()+")", "fix or restore the file; saving now would overwrite it with defaults")
	case doku.ReadFailed:
		io.Warn("cannot read "+res.Path+" ("+res.Err.Error()+")", "check file permissions")
	case doku.ReadAbsent:
	}

	if doc == nil {
		doc = doku.NewDocument(id)
	}

	data, err := doc.Encode()
	if err != nil {
		return err
	}

	io.Printf("%s", data)

	return nil
}
